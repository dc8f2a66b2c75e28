package projection

import "fmt"

// ProjectionError reports a projection that references an unknown member,
// shape or field, or that fails on a value at evaluation time.
type ProjectionError struct {
	Member string
	Shape  string
	Reason string
}

func (e *ProjectionError) Error() string {
	switch {
	case e.Member != "" && e.Shape != "":
		return fmt.Sprintf("projection: %s.%s: %s", e.Shape, e.Member, e.Reason)
	case e.Member != "":
		return fmt.Sprintf("projection: %s: %s", e.Member, e.Reason)
	case e.Shape != "":
		return fmt.Sprintf("projection: shape %s: %s", e.Shape, e.Reason)
	default:
		return "projection: " + e.Reason
	}
}
