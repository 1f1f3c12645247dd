package changelog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() *Entry {
	return &Entry{
		Source:     "tempesta-fw",
		Version:    "5.4.0-tfw3-2",
		Summary:    "TempestaFW kernel v5.4.0-3-gabc1234:",
		Changes:    []string{"A", "B", "C"},
		Maintainer: Identity{Name: "Jane Doe", Email: "jane@example.com"},
		Date:       "Wed, 3 Jan 2024 10:00:00 +0000",
	}
}

func TestRenderString(t *testing.T) {
	t.Parallel()

	got, err := RenderString(sampleEntry())
	require.NoError(t, err)

	want := "tempesta-fw (5.4.0-tfw3-2) UNRELEASED; urgency=medium\n" +
		"\n" +
		"  * TempestaFW kernel v5.4.0-3-gabc1234:\n" +
		"    - A\n" +
		"    - B\n" +
		"    - C\n" +
		"\n" +
		" -- Jane Doe <jane@example.com>  Wed, 3 Jan 2024 10:00:00 +0000\n"
	assert.Equal(t, want, got)
}

func TestRenderString_Variants(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		modify      func(e *Entry)
		contains    []string
		notContains []string
	}{
		"explicit distribution and urgency": {
			modify: func(e *Entry) {
				e.Distribution = "buster"
				e.Urgency = "low"
			},
			contains: []string{"tempesta-fw (5.4.0-tfw3-2) buster; urgency=low\n"},
		},
		"no changes keeps summary": {
			modify:      func(e *Entry) { e.Changes = nil },
			contains:    []string{"  * TempestaFW kernel v5.4.0-3-gabc1234:\n\n -- "},
			notContains: []string{"    - "},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			e := sampleEntry()
			tt.modify(e)
			got, err := RenderString(e)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func TestRender_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		modify    func(e *Entry)
		wantField string
	}{
		"missing source":     {modify: func(e *Entry) { e.Source = "" }, wantField: "source"},
		"missing version":    {modify: func(e *Entry) { e.Version = " " }, wantField: "version"},
		"missing name":       {modify: func(e *Entry) { e.Maintainer.Name = "" }, wantField: "maintainer.name"},
		"missing email":      {modify: func(e *Entry) { e.Maintainer.Email = "" }, wantField: "maintainer.email"},
		"missing date":       {modify: func(e *Entry) { e.Date = "" }, wantField: "date"},
		"version with paren": {modify: func(e *Entry) { e.Version = "1.0(1)" }, wantField: "version"},
		"multi-line change":  {modify: func(e *Entry) { e.Changes = []string{"a\nb"} }, wantField: "changes[0]"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			e := sampleEntry()
			tt.modify(e)

			var sb strings.Builder
			err := Render(e, &sb)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.True(t, IsValidationError(err))
			assert.Empty(t, sb.String(), "nothing is written for an invalid entry")
		})
	}
}

func TestRender_HeaderRoundTrip(t *testing.T) {
	t.Parallel()

	got, err := RenderString(sampleEntry())
	require.NoError(t, err)

	h, err := ReadHeader(strings.NewReader(got))
	require.NoError(t, err)
	assert.Equal(t, "tempesta-fw", h.Source)
	assert.Equal(t, "5.4.0-tfw3-2", h.Version)
	assert.Equal(t, []string{"UNRELEASED"}, h.Distributions)
	assert.Equal(t, "medium", h.Urgency())
}
