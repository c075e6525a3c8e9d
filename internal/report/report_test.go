package report

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestExtractScoreRounds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  float64
		want int
	}{
		{raw: 0.87, want: 87},
		{raw: 0.875, want: 88},
		{raw: 0, want: 0},
		{raw: 1, want: 100},
	}
	for _, tc := range cases {
		r := &Report{Categories: map[string]*Category{
			"performance": {ID: "performance", Score: fptr(tc.raw)},
		}}
		got := ExtractScore(r)
		require.NotNil(t, got)
		require.Equal(t, tc.want, *got)
	}
}

func TestExtractScoreAbsent(t *testing.T) {
	t.Parallel()

	require.Nil(t, ExtractScore(&Report{}))
	require.Nil(t, ExtractScore(&Report{Categories: map[string]*Category{
		"performance": {ID: "performance"},
	}}))
}

func TestExtractMetrics(t *testing.T) {
	t.Parallel()

	r := &Report{Audits: map[string]*Audit{
		"first-contentful-paint":   {NumericValue: fptr(1210.4)},
		"largest-contentful-paint": {NumericValue: fptr(2450)},
		"cumulative-layout-shift":  {NumericValue: fptr(0.02)},
		"total-blocking-time":      {NumericValue: fptr(140)},
		"speed-index":              {NumericValue: fptr(1900)},
	}}

	m := ExtractMetrics(r)
	require.Equal(t, 1210.4, *m.FirstContentfulPaint)
	require.Equal(t, 2450.0, *m.LargestContentfulPaint)
	require.Equal(t, 0.02, *m.CumulativeLayoutShift)
	require.Equal(t, 140.0, *m.TotalBlockingTime)
	require.Equal(t, 1900.0, *m.SpeedIndex)
	require.Nil(t, m.Interactive, "absent audit leaves a nil metric")
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	r := &Report{
		RequestedURL: "https://example.com",
		Audits: map[string]*Audit{
			AuditFilmstrip: {
				ID: AuditFilmstrip,
				Details: &Details{
					Type: DetailsTypeFilmstrip,
					Filmstrip: &Filmstrip{
						Type:  DetailsTypeFilmstrip,
						Items: []FilmstripItem{{Data: "data:image/png;base64,AAAA"}},
					},
				},
			},
		},
	}

	cp := r.Clone()
	cp.Audits[AuditFilmstrip].Details.Filmstrip.Items[0].Data = ""
	cp.Audits[AuditFilmstrip].Details.Filmstrip.Items[0].ObjectKey = "t/a.png"

	require.Equal(t, "data:image/png;base64,AAAA", r.Audits[AuditFilmstrip].Details.Filmstrip.Items[0].Data)
	require.Empty(t, r.Audits[AuditFilmstrip].Details.Filmstrip.Items[0].ObjectKey)
}
