package domain

import "fmt"

// NoColumn marks an optional column as absent from a layout.
const NoColumn = -1

// ColumnLayout declares where each field lives in a spreadsheet row (0-based columns).
type ColumnLayout struct {
	Name                   string
	TopicColumn            int
	QuestionColumn         int
	OptionColumns          [OptionCount]int
	CorrectMarkerColumn    int
	ImageColumn            int
	HeaderRowPresent       bool
	HeaderRowIndex         int
	RejectDuplicateOptions bool
}

// StandardLayout reads question, four options and the marker from columns A-F.
func StandardLayout() ColumnLayout {
	return ColumnLayout{
		Name:                "standard",
		TopicColumn:         NoColumn,
		QuestionColumn:      0,
		OptionColumns:       [OptionCount]int{1, 2, 3, 4},
		CorrectMarkerColumn: 5,
		ImageColumn:         NoColumn,
	}
}

// ImagedLayout puts an image URL in column A and always carries a header row.
func ImagedLayout() ColumnLayout {
	return ColumnLayout{
		Name:                "imaged",
		TopicColumn:         NoColumn,
		QuestionColumn:      1,
		OptionColumns:       [OptionCount]int{2, 3, 4, 5},
		CorrectMarkerColumn: 6,
		ImageColumn:         0,
		HeaderRowPresent:    true,
	}
}

// TopicalLayout reads topic, question, options, marker and image from columns A-H.
func TopicalLayout() ColumnLayout {
	return ColumnLayout{
		Name:                "topical",
		TopicColumn:         0,
		QuestionColumn:      1,
		OptionColumns:       [OptionCount]int{2, 3, 4, 5},
		CorrectMarkerColumn: 6,
		ImageColumn:         7,
		HeaderRowPresent:    true,
	}
}

// Validate checks that required columns are set and no two fields share a column.
func (l ColumnLayout) Validate() error {
	seen := make(map[int]string)
	claim := func(field string, col int, optional bool) error {
		if col == NoColumn && optional {
			return nil
		}
		if col < 0 {
			return fmt.Errorf("%w: %s column %d", ErrInvalidLayout, field, col)
		}
		if other, ok := seen[col]; ok {
			return fmt.Errorf("%w: %s and %s share column %d", ErrInvalidLayout, field, other, col)
		}
		seen[col] = field
		return nil
	}

	if err := claim("topic", l.TopicColumn, true); err != nil {
		return err
	}
	if err := claim("question", l.QuestionColumn, false); err != nil {
		return err
	}
	for i, col := range l.OptionColumns {
		if err := claim(fmt.Sprintf("option %d", i+1), col, false); err != nil {
			return err
		}
	}
	if err := claim("correct marker", l.CorrectMarkerColumn, false); err != nil {
		return err
	}
	if err := claim("image", l.ImageColumn, true); err != nil {
		return err
	}
	if l.HeaderRowPresent && l.HeaderRowIndex < 0 {
		return fmt.Errorf("%w: header row index %d", ErrInvalidLayout, l.HeaderRowIndex)
	}
	return nil
}
