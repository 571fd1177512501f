package shader

import (
	"errors"
	"strings"
	"testing"
)

func TestProgramResolve(t *testing.T) {
	p := &Program{mapped: map[string]string{
		"u_amount":  "_uu_amount",
		"u_colors":  "_uu_colors",
		"u_fade[0]": "_uu_fade[0]",
	}}
	tests := []struct {
		name string
		want string
	}{
		{"u_amount", "_uu_amount"},
		{"u_colors[3]", "_uu_colors[3]"},
		{"u_fade[5]", "_uu_fade[5]"},
		{"u_missing", "u_missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.resolve(tt.name); got != tt.want {
				t.Errorf("resolve(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestProgramResolveUntranslated(t *testing.T) {
	p := &Program{mapped: map[string]string{}}
	if got := p.resolve("u_colors[2]"); got != "u_colors[2]" {
		t.Errorf("resolve() = %q, want source name", got)
	}
}

func TestCompileErrorMessage(t *testing.T) {
	cause := errors.New("boom")
	err := &CompileError{Stage: "fragment", Log: "0:12: syntax error\x00\x00", Err: cause}
	msg := err.Error()
	if !strings.Contains(msg, "fragment shader failed") || !strings.Contains(msg, "syntax error") {
		t.Errorf("Error() = %q", msg)
	}
	if strings.Contains(msg, "\x00") {
		t.Errorf("Error() keeps NUL padding: %q", msg)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
}

func TestFragmentSourcesDeclareUniforms(t *testing.T) {
	thermal := GetThermalFragmentShader(false)
	for _, u := range []string{"u_trail", "u_video", "u_mask", "u_colors[7]", "u_blend[6]", "u_fade[6]", "u_halfExtents"} {
		if !strings.Contains(thermal, u) {
			t.Errorf("thermal stage missing %s", u)
		}
	}
	debug := GetThermalFragmentShader(true)
	if strings.Contains(debug, "u_colors") {
		t.Error("debug stage should not depend on the palette")
	}
	if !strings.Contains(debug, "lessThanEqual(u_touch, vec2(1.0))") {
		t.Error("debug stage should only mark touches inside the content square")
	}
	if !strings.Contains(GetTrailFragmentShader(), "u_prev") {
		t.Error("trail stage missing u_prev")
	}
	if !strings.HasPrefix(GenerateVertexShader(), "#version 410 core") {
		t.Error("vertex stage should target GLSL 4.10 core")
	}
}
