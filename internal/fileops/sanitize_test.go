package fileops

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"My cool movie.mov", "My_cool_movie.mov"},
		{"../../../etc/passwd", "etc_passwd"},
		{"/etc/shadow", "etc_shadow"},
		{`C:\Windows\system32\drivers.sys`, "C_Windows_system32_drivers.sys"},
		{"i contain cool \xfcml\xe4uts.txt", "i_contain_cool_mluts.txt"},
		{"i contain cool ümläuts.txt", "i_contain_cool_umlauts.txt"},
		{"..", ""},
		{"...", ""},
		{"", ""},
		{"   ", ""},
		{"☃☃☃", ""},
		{"__init__.py", "init__.py"},
		{".hidden", "hidden"},
		{"a\x00b.txt", "ab.txt"},
		{"con.txt", "_con.txt"},
		{"LPT1", "_LPT1"},
		{"console.txt", "console.txt"},
		{"rm -rf $HOME;.sh", "rm_-rf_HOME.sh"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "Sanitize(%q)", tt.in)
	}
}

func TestSanitize_Truncates(t *testing.T) {
	long := strings.Repeat("a", 300) + ".tar.gz"
	got := Sanitize(long)
	assert.Len(t, got, maxNameBytes)
	assert.True(t, strings.HasSuffix(got, ".gz"))
}

func TestSanitize_StaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	for _, in := range []string{
		"../secret", "../../x", "/abs/path", "..\\..\\win", "a/../../b", "./.././c", "~/../../d",
	} {
		name := Sanitize(in)
		if name == "" {
			continue
		}
		joined := filepath.Join(root, name)
		assert.Equal(t, root, filepath.Dir(joined), "Sanitize(%q) = %q escapes root", in, name)
		assert.True(t, isFlatName(name), name)
	}
}

func TestIsFlatName(t *testing.T) {
	for _, ok := range []string{"a.txt", "...a", "a..b"} {
		assert.True(t, isFlatName(ok), ok)
	}
	for _, bad := range []string{"", ".", "..", "/etc/passwd", "a/b", `a\b`, "../a", "a\x00"} {
		assert.False(t, isFlatName(bad), bad)
	}
}
