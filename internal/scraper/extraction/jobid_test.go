package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveJobIDPriority(t *testing.T) {
	tests := []struct {
		name string
		el   *fakeElement
		want *string
	}{
		{
			name: "url pattern wins over data-job-id",
			el:   &fakeElement{attrs: map[string]string{"href": "/jobs/abc123", "data-job-id": "999"}},
			want: strPtr("abc123"),
		},
		{
			name: "positions path",
			el:   &fakeElement{attrs: map[string]string{"href": "https://x.test/positions/P42?ref=a"}},
			want: strPtr("P42"),
		},
		{
			name: "query id",
			el:   &fakeElement{attrs: map[string]string{"href": "/apply?id=77&src=list"}},
			want: strPtr("77"),
		},
		{
			name: "trailing number",
			el:   &fakeElement{attrs: map[string]string{"href": "/openings/engineering/4411/"}},
			want: strPtr("4411"),
		},
		{
			name: "unmatched href falls through to attributes",
			el:   &fakeElement{attrs: map[string]string{"href": "/about", "data-position-id": "pos-9", "id": "card"}},
			want: strPtr("pos-9"),
		},
		{
			name: "attribute order",
			el:   &fakeElement{attrs: map[string]string{"id": "card-1", "data-id": "d-1"}},
			want: strPtr("d-1"),
		},
		{
			name: "numeric text",
			el:   &fakeElement{text: "  12345 "},
			want: strPtr("12345"),
		},
		{
			name: "non numeric text",
			el:   &fakeElement{text: "Job 12345"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveJobID(tt.el)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestJobIDFromURLPatternOrder(t *testing.T) {
	// /careers/ matches before the trailing number
	id := JobIDFromURL("/careers/eng/123")
	require.NotNil(t, id)
	assert.Equal(t, "eng", *id)

	assert.Nil(t, JobIDFromURL("/team"))
}

func strPtr(s string) *string { return &s }
