package identity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"  Great   food \n", "great food"},
		{"두향\t정자점", "두향 정자점"},
		{"ALREADY normal", "already normal"},
		{"  spaced  ", "spaced"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeText(tc.in), "input %q", tc.in)
	}
}

func TestStoreKey_StableAcrossFormatting(t *testing.T) {
	a := StoreKey("두향 정자점", "경기 성남시 분당구 정자동 1")
	b := StoreKey("  두향   정자점 ", "경기 성남시  분당구 정자동 1\n")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c := StoreKey("두향 정자점", "경기 성남시 분당구 정자동 2")
	assert.NotEqual(t, a, c)
}

func TestStoreKey_NameAddressBoundary(t *testing.T) {
	assert.NotEqual(t, StoreKey("ab", "c"), StoreKey("a", "bc"))
}

func TestReviewHash(t *testing.T) {
	h1 := ReviewHash(1, "kakao", "Great food")
	h2 := ReviewHash(1, "KAKAO", "Great   food")
	assert.Equal(t, h1, h2)

	assert.NotEqual(t, h1, ReviewHash(2, "kakao", "Great food"))
	assert.NotEqual(t, h1, ReviewHash(1, "naver", "Great food"))
	assert.NotEqual(t, h1, ReviewHash(1, "kakao", "Good food"))
}

func TestResolve_PlainText(t *testing.T) {
	r := Resolve(PlainText{Text: "성남시 분당구 정자동"})
	require.NotNil(t, r.Address)
	assert.Equal(t, "성남시 분당구 정자동", *r.Address)
	assert.Nil(t, r.Lat)
	assert.Nil(t, r.Lng)
}

func TestResolve_EmbeddedCoords(t *testing.T) {
	r := Resolve(PlainText{Text: "성남시 분당구 (37.367, 127.108)"})
	require.NotNil(t, r.Lat)
	require.NotNil(t, r.Lng)
	assert.InDelta(t, 37.367, *r.Lat, 1e-9)
	assert.InDelta(t, 127.108, *r.Lng, 1e-9)

	r = Resolve(PlainText{Text: "somewhere (37.1 127.2)"})
	require.NotNil(t, r.Lat)
	assert.InDelta(t, 37.1, *r.Lat, 1e-9)
}

func TestResolve_WithCoords(t *testing.T) {
	r := Resolve(WithCoords{Text: "정자동 1", Coord: NewCoordinate(37.1, 127.1)})
	require.NotNil(t, r.Address)
	assert.Equal(t, "정자동 1", *r.Address)
	require.NotNil(t, r.Lat)
	assert.InDelta(t, 37.1, *r.Lat, 1e-9)
	assert.InDelta(t, 127.1, *r.Lng, 1e-9)
}

func TestResolve_EmbeddedWinsOverPair(t *testing.T) {
	r := Resolve(WithCoords{Text: "x (1.5, 2.5)", Coord: NewCoordinate(37.1, 127.1)})
	assert.InDelta(t, 1.5, *r.Lat, 1e-9)
	assert.InDelta(t, 2.5, *r.Lng, 1e-9)
}

func TestResolve_MalformedDegradesToNil(t *testing.T) {
	r := Resolve(WithCoords{Text: "정자동", Coord: CoordinateFromStrings("abc", "")})
	assert.NotNil(t, r.Address)
	assert.Nil(t, r.Lat)
	assert.Nil(t, r.Lng)

	nan := math.NaN()
	r = Resolve(WithCoords{Text: "정자동", Coord: Coordinate{Lat: &nan}})
	assert.Nil(t, r.Lat)

	r = Resolve(nil)
	assert.Nil(t, r.Address)
	assert.Nil(t, r.Lat)
	assert.Nil(t, r.Lng)
}

func TestCoordinateFromStrings(t *testing.T) {
	c := CoordinateFromStrings(" 37.5 ", "127.0")
	require.NotNil(t, c.Lat)
	require.NotNil(t, c.Lng)
	assert.Equal(t, 37.5, *c.Lat)
	assert.Equal(t, 127.0, *c.Lng)
}
