package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownSector  = errors.New("UNKNOWN_SECTOR")
	ErrInvalidCatalog = errors.New("INVALID_CATALOG")
)

// UnknownSectorError reports a sector outside the catalog's enumerated set.
type UnknownSectorError struct {
	Sector string
	Known  []string
}

func (e *UnknownSectorError) Error() string {
	return fmt.Sprintf("unknown sector %q (known: %s)", e.Sector, strings.Join(e.Known, ", "))
}

func (e *UnknownSectorError) Is(target error) bool {
	return target == ErrUnknownSector
}

// InvalidCatalogError collects every structural or invariant problem found
// while loading a catalog. It is a startup failure, never a request error.
type InvalidCatalogError struct {
	Problems []string
}

func (e *InvalidCatalogError) Error() string {
	return fmt.Sprintf("invalid catalog: %s", strings.Join(e.Problems, "; "))
}

func (e *InvalidCatalogError) Is(target error) bool {
	return target == ErrInvalidCatalog
}
