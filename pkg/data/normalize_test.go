package data

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeSeries(t *testing.T) {
	raw := []byte(`[
		{"id":"serie_1","title":"One Piece","slug":"one-piece","tags":["Action"," Aventure ",""],"views":"120","hot":"true","createdAt":1700000000000},
		{"id":"serie_2","name":"Ancien Format","tags":"Drame, Romance,,","views":null,"hot":1,
		 "chapters":[{"id":"chap_1","title":"Début","number":"1.5","language":"EN","date":"2024-03-05T10:00:00Z","pages":["data:image/png;base64,AA==",""]}]},
		{"id":"","title":"Sans identifiant"},
		{"id":"serie_3","title":"   "},
		"not an object"
	]`)

	series, chapters := NormalizeSeries(raw)

	wantSeries := []Series{
		{ID: "serie_1", Title: "One Piece", Slug: "one-piece", Tags: []string{"Action", "Aventure"}, Views: 120, Hot: true, CreatedAt: 1700000000000},
		{ID: "serie_2", Title: "Ancien Format", Tags: []string{"Drame", "Romance"}, Hot: true},
	}
	if diff := cmp.Diff(wantSeries, series); diff != "" {
		t.Errorf("NormalizeSeries() series mismatch (-want +got):\n%s", diff)
	}

	wantChapters := []Chapter{{
		ID:          "chap_1",
		SeriesID:    "serie_2",
		Name:        "Début",
		Number:      1.5,
		Lang:        "EN",
		ReleaseDate: "2024-03-05",
		Pages:       []ImageRef{"data:image/png;base64,AA=="},
	}}
	if diff := cmp.Diff(wantChapters, chapters); diff != "" {
		t.Errorf("NormalizeSeries() chapters mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeSeriesMalformed(t *testing.T) {
	for _, raw := range []string{"", "{}", "null", "not json", `{"id":"x"}`} {
		series, chapters := NormalizeSeries([]byte(raw))
		assert.Empty(t, series, "input %q", raw)
		assert.Empty(t, chapters, "input %q", raw)
	}
}

func TestNormalizeChapters(t *testing.T) {
	raw := []byte(`[
		{"id":"chap_1","seriesId":"serie_1","name":"Un","number":1,"lang":"FR","releaseDate":"2024-01-01","pages":["blob:serie_1:chap_1:0"]},
		{"id":"chap_2","serieId":"serie_1","number":"2"},
		{"id":"chap_3"},
		{"seriesId":"serie_1","number":4}
	]`)

	chapters := NormalizeChapters(raw)

	want := []Chapter{
		{ID: "chap_1", SeriesID: "serie_1", Name: "Un", Number: 1, Lang: "FR", ReleaseDate: "2024-01-01", Pages: []ImageRef{"blob:serie_1:chap_1:0"}},
		{ID: "chap_2", SeriesID: "serie_1", Number: 2, Lang: DefaultLang, Pages: []ImageRef{}},
	}
	if diff := cmp.Diff(want, chapters); diff != "" {
		t.Errorf("NormalizeChapters() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Action, Drame", []string{"Action", "Drame"}},
		{" , ,", []string{}},
		{"", []string{}},
		{"Seinen", []string{"Seinen"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTags(tt.input))
		})
	}
}
