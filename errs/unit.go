package errs

import "fmt"

// SectionError names the character file section that failed to decode or encode.
type SectionError struct {
	Section string
	Offset  int // byte offset of the section start, -1 when unknown
	Err     error
}

func (e *SectionError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("section %s at offset %d: %v", e.Section, e.Offset, e.Err)
	}

	return fmt.Sprintf("section %s: %v", e.Section, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SectionError) Unwrap() []error {
	return []error{ErrCorruptSection, e.Err}
}

// PageError names the shared stash page that failed to decode.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("stash page %d: %v", e.Page, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PageError) Unwrap() []error {
	return []error{ErrCorruptPage, e.Err}
}

// ItemError names the index of the item inside its section.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ItemError) Unwrap() error {
	return e.Err
}

// Section wraps err in a SectionError. A nil err returns nil.
func Section(name string, offset int, err error) error {
	if err == nil {
		return nil
	}

	return &SectionError{Section: name, Offset: offset, Err: err}
}

// Page wraps err in a PageError. A nil err returns nil.
func Page(index int, err error) error {
	if err == nil {
		return nil
	}

	return &PageError{Page: index, Err: err}
}

// Item wraps err in an ItemError. A nil err returns nil.
func Item(index int, err error) error {
	if err == nil {
		return nil
	}

	return &ItemError{Index: index, Err: err}
}
