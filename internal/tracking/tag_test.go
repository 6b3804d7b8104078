package tracking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oldTemplate = "hello\n<img src=\"https://ga-beacon.appspot.com/GA-OLD/d/s/{{itemid}}.gif\">"

func TestExtractTagID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
		wantID   string
		wantOK   bool
	}{
		{"scenario template", oldTemplate, "GA-OLD", true},
		{"no tag", "<p>plain listing</p>", "", false},
		{"empty", "", "", false},
		{"upper case markup", `<IMG SRC="HTTPS://GA-BEACON.APPSPOT.COM/UA-1-2/d/s/{{itemid}}.gif">`, "UA-1-2", true},
		{
			"first of two",
			`<img src="https://ga-beacon.appspot.com/FIRST/d/s/x.gif"><img src="https://ga-beacon.appspot.com/SECOND/d/s/x.gif">`,
			"FIRST", true,
		},
		{"other host", `<img src="https://example.com/GA-1/d/s/x.gif">`, "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, ok := ExtractTagID(tt.template)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestRewriteScenario(t *testing.T) {
	t.Parallel()

	acct := Account{ID: "a1", Destination: "d", SellerName: "s", Template: oldTemplate, HasTemplate: true}

	id, ok := ExtractTagID(acct.Template)
	require.True(t, ok)
	assert.Equal(t, "GA-OLD", id)

	out := RewriteTemplate(acct, "GA-NEW")
	assert.Equal(t, 1, strings.Count(out, "GA-NEW"))
	assert.Zero(t, strings.Count(out, "GA-OLD"))
	assert.Equal(t, "hello\n<img src=\"https://ga-beacon.appspot.com/GA-NEW/d/s/{{itemid}}.gif\">", out)
}

func TestRewriteRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id, destination, seller string
	}{
		{"UA-123-1", "amazon", "Acme"},
		{"G-XYZ", "", ""},
		{"GA.1_2", "ebay/us", "Bob's \"Best\" Shop"},
		{"x", "dest with spaces", "seller/with/slashes"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()

			acct := Account{Destination: tt.destination, SellerName: tt.seller, Template: "<p>listing</p>"}
			got, ok := ExtractTagID(RewriteTemplate(acct, tt.id))
			require.True(t, ok)
			assert.Equal(t, tt.id, got)
		})
	}
}

func TestRewriteDisable(t *testing.T) {
	t.Parallel()

	acct := Account{Destination: "d", SellerName: "s", Template: oldTemplate}
	out := RewriteTemplate(acct, "")

	_, ok := ExtractTagID(out)
	assert.False(t, ok)
	assert.Equal(t, "hello\n", out)
}

func TestRewriteIsIdempotent(t *testing.T) {
	t.Parallel()

	acct := Account{Destination: "d", SellerName: "s", Template: "intro\n\n  "}

	first := RewriteTemplate(acct, "GA-1")
	acct.Template = first
	second := RewriteTemplate(acct, "GA-1")
	acct.Template = second
	third := RewriteTemplate(acct, "GA-1")

	assert.Equal(t, first, second)
	assert.Equal(t, second, third)
	assert.Equal(t, 1, strings.Count(third, "ga-beacon"))
}

func TestRewriteLeavesAtMostOneTag(t *testing.T) {
	t.Parallel()

	acct := Account{
		Destination: "d",
		SellerName:  "s",
		Template: `a<img src="https://ga-beacon.appspot.com/ONE/d/s/x.gif">b` +
			`<img src="https://ga-beacon.appspot.com/TWO/d/s/x.gif">c`,
	}

	out := RewriteTemplate(acct, "THREE")
	assert.Equal(t, 1, strings.Count(out, "ga-beacon"))
	assert.Equal(t, "abc\n"+BuildTag("THREE", "d", "s"), out)
}

func TestRemoveThenReinsertSameIDIsNoop(t *testing.T) {
	t.Parallel()

	acct := Account{Destination: "d", SellerName: "s", Template: oldTemplate}
	assert.Equal(t, oldTemplate, RewriteTemplate(acct, "GA-OLD"))
}

func TestRewriteEmptyTemplate(t *testing.T) {
	t.Parallel()

	out := RewriteTemplate(Account{Destination: "d", SellerName: "s"}, "GA-1")
	assert.Equal(t, BuildTag("GA-1", "d", "s"), out)
}

func TestRemoveTagKeepsSurroundings(t *testing.T) {
	t.Parallel()

	in := "a\n  " + BuildTag("X", "d", "s") + "  \nb"
	assert.Equal(t, "a\n    \nb", RemoveTag(in))
}

func TestValidateTrackingID(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"", "UA-1234-5", "G-ABC", "a.b_c-d"} {
		assert.NoError(t, ValidateTrackingID(ok), ok)
	}
	for _, bad := range []string{"a/b", `a"b`, "a b", "<script>", strings.Repeat("x", 65)} {
		assert.ErrorIs(t, ValidateTrackingID(bad), ErrInvalidTrackingID, bad)
	}
}
