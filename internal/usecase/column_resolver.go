package usecase

import "github.com/prodfilter/backend/internal/domain"

// ResolveColumns maps a header row to the positions of the required columns.
// Names are matched exactly and the first occurrence wins; a missing name yields -1.
// Callers decide what to do with -1 (see domain.ColumnPositions.Validate).
func ResolveColumns(headers []string) domain.ColumnPositions {
	return domain.ColumnPositions{
		Price:  indexOf(headers, domain.ColumnPrice),
		Color:  indexOf(headers, domain.ColumnColor),
		Size:   indexOf(headers, domain.ColumnSize),
		Gender: indexOf(headers, domain.ColumnGender),
	}
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}
