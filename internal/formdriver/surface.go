// Surface is the boundary between the state machine and the live page.
// The driver never touches the DOM directly; everything crosses this
// narrow contract so the machine can be exercised against a fake.

package formdriver

import (
	"context"
	"time"
)

type Option struct {
	Value string
	Label string
}

// Field is one visible, enabled, writable input inside the form
// container, in document order.
type Field struct {
	//Ref is the surface's handle for this field, opaque to the driver
	Ref         string
	Name        string
	ID          string
	Placeholder string
	AriaLabel   string
	Label       string
	Type        string //input type, or "textarea"/"select"
	Value       string
	Options     []Option //populated for selects
}

func (f Field) multiline() bool {
	return f.Type == "textarea"
}

func (f Field) selectable() bool {
	return f.Type == "select"
}

type Surface interface {
	//DetectContainer reports whether the application form/modal is present
	DetectContainer(ctx context.Context) (bool, error)

	//Fields lists the currently fillable fields of the active step
	Fields(ctx context.Context) ([]Field, error)

	//FillText assigns value in one go
	FillText(ctx context.Context, ref, value string) error

	//TypeText inserts value character by character with delay between keys
	TypeText(ctx context.Context, ref, value string, delay time.Duration) error

	//SelectOption picks an option by value on a select field
	SelectOption(ctx context.Context, ref, value string) error

	//NextControl reports presence and enabled state of a next/continue control
	NextControl(ctx context.Context) (present bool, enabled bool, err error)
	ClickNext(ctx context.Context) error

	//SubmitControl reports presence of the final submit control
	SubmitControl(ctx context.Context) (bool, error)
	ClickSubmit(ctx context.Context) error

	//PageText returns the rendered page text, used for confirmation polling
	PageText(ctx context.Context) (string, error)
}
