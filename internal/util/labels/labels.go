package labels

// Standard tag keys.
const (
	// KeyManaged marks every resource spotbuild created.
	KeyManaged = "spotbuild/managed"

	// KeyRunID identifies the run that created a resource.
	KeyRunID = "spotbuild/run-id"
)

// ManagedValue is the value of KeyManaged.
const ManagedValue = "true"

// LabelBuilder provides a fluent interface for building resource tags.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a builder with the managed tag pre-set.
func NewLabelBuilder() *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyManaged: ManagedValue,
		},
	}
}

// WithRunID adds the run ID tag when runID is non-empty.
func (lb *LabelBuilder) WithRunID(runID string) *LabelBuilder {
	if runID != "" {
		lb.labels[KeyRunID] = runID
	}
	return lb
}

// Merge adds all tags from extra. The managed tag cannot be overridden.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		if k == KeyManaged {
			continue
		}
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the tags map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// ManagedSelector returns the label selector matching every managed resource.
func ManagedSelector() string {
	return KeyManaged + "=" + ManagedValue
}
