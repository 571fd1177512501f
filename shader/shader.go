package shader

// ────────────────────────────────── Vertex stage ──────────────────────────────────

// The quad covers clip space; every fragment stage derives its coordinates
// from gl_FragCoord so the stages share no varyings.

const vertexShaderSourceGL = `#version 410 core
layout (location = 0) in vec2 in_vert;
void main() {
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

// ─────────────────────────────── Thermal composite ────────────────────────────────

// u_halfExtents is the orthographic framing: screen space [-1,1] scaled by
// it gives the 1:1 content space whose [-1,1] square holds the logo.
const thermalFragmentSource = `#version 300 es
precision highp float;

uniform vec2  u_resolution;
uniform vec2  u_halfExtents;

uniform sampler2D u_trail;
uniform sampler2D u_video;
uniform sampler2D u_mask;

uniform float u_random;
uniform float u_opacity;
uniform float u_amount;
uniform float u_power;
uniform float u_saturation;
uniform float u_shift;
uniform float u_interactionSize;
uniform float u_videoBlend;
uniform float u_intensity;

uniform vec2  u_maskScale;
uniform vec2  u_maskOffset;

uniform vec3  u_colors[7];
uniform float u_blend[6];
uniform float u_fade[6];

out vec4 fragColor;

const vec3 LUMA = vec3(0.2126729, 0.7151522, 0.0721750);
const vec2 FADE_CENTER = vec2(0.5, 0.5);

vec3 gradient(float t) {
    vec3 c = u_colors[0];
    for (int i = 0; i < 6; i++) {
        float w = smoothstep(u_blend[i] - u_fade[i], u_blend[i] + u_fade[i], t);
        c = mix(c, u_colors[i + 1], w);
    }
    return c;
}

float dither(vec2 p) {
    return fract(sin(dot(p + u_random, vec2(12.9898, 78.233))) * 43758.5453) - 0.5;
}

void main() {
    vec2 screen = gl_FragCoord.xy / u_resolution;
    vec2 uv = (screen * 2.0 - 1.0) * u_halfExtents * 0.5 + 0.5;

    vec2 maskUV = (uv - 0.5) / u_maskScale + 0.5 + u_maskOffset;
    bool inside = all(greaterThanEqual(maskUV, vec2(0.0))) && all(lessThanEqual(maskUV, vec2(1.0)));
    float mask = texture(u_mask, clamp(maskUV, 0.0, 1.0)).g;
    mask = max(mask, inside ? 0.3 : 0.1);

    vec4 trail = texture(u_trail, uv);
    float heat = max(trail.b * mask * u_interactionSize, 0.2 * u_amount);

    // Frames are uploaded top row first; mirror horizontally as well.
    vec2 videoUV = vec2(1.0 - screen.x, 1.0 - screen.y) + trail.rg * 0.01;
    vec3 video = texture(u_video, videoUV).rgb;

    float base = clamp(mix(mask * 0.6, dot(video, LUMA), u_videoBlend), 0.0, 1.0);
    base = pow(base, u_power);
    base = mix(base * 0.7, base * 1.15, smoothstep(0.2, 0.5, screen.y));
    base *= u_opacity * u_amount;

    float temperature = clamp(base + heat + u_shift, 0.0, 1.0);
    vec3 color = gradient(temperature);

    float lum = dot(color, LUMA);
    color = mix(vec3(lum), color, u_saturation);

    float fade = 1.0 - smoothstep(0.35, 0.95, distance(uv, FADE_CENTER));
    color *= fade * u_intensity;

    color = max(color, vec3(0.05 * u_amount));
    color += dither(gl_FragCoord.xy) / 255.0;

    fragColor = vec4(color, clamp(u_amount, 0.0, 1.0));
}
`

// ────────────────────────────────── Debug stage ──────────────────────────────────

const debugFragmentSource = `#version 300 es
precision highp float;

uniform vec2 u_resolution;
uniform sampler2D u_trail;
uniform sampler2D u_video;
uniform sampler2D u_mask;
uniform vec2 u_touch;

out vec4 fragColor;

float marker(vec2 p, vec2 at, float size) {
    vec2 d = abs(p - at);
    return step(max(d.x, d.y), size);
}

void main() {
    vec2 screen = gl_FragCoord.xy / u_resolution;
    float band = floor(screen.x * 3.0);
    vec2 local = vec2(fract(screen.x * 3.0), screen.y);

    vec3 color;
    if (band < 1.0) {
        color = texture(u_mask, local).rgb;
    } else if (band < 2.0) {
        color = texture(u_video, vec2(local.x, 1.0 - local.y)).rgb;
    } else {
        vec4 t = texture(u_trail, local);
        color = vec3(abs(t.r), abs(t.g), t.b);
    }

    vec2 cell = fract(screen / 0.01);
    float grid = step(0.92, max(cell.x, cell.y));
    color = mix(color, vec3(0.35), grid * 0.25);

    float s = 0.02;
    color = mix(color, vec3(1.0, 0.0, 0.0), marker(screen, vec2(s, 1.0 - s), s));
    color = mix(color, vec3(0.0, 1.0, 0.0), marker(screen, vec2(1.0 - s, 1.0 - s), s));
    color = mix(color, vec3(0.0, 0.0, 1.0), marker(screen, vec2(s, s), s));
    color = mix(color, vec3(1.0), marker(screen, vec2(1.0 - s, s), s));

    // u_touch is in content uv; outside the square there is nothing to mark.
    if (all(greaterThanEqual(u_touch, vec2(0.0))) && all(lessThanEqual(u_touch, vec2(1.0)))) {
        for (int i = 0; i < 3; i++) {
            vec2 at = vec2((float(i) + u_touch.x) / 3.0, u_touch.y);
            color = mix(color, vec3(1.0, 0.0, 1.0), marker(screen, at, 0.004));
        }
    }

    fragColor = vec4(color, 1.0);
}
`

// ────────────────────────────────── Trail stage ──────────────────────────────────

// The previous accumulation is decayed and a gaussian splat is added at
// u_point. B carries heat, RG the splat-weighted movement direction.
const trailFragmentSource = `#version 300 es
precision highp float;

uniform vec2  u_resolution;
uniform sampler2D u_prev;
uniform float u_decay;
uniform vec2  u_point;
uniform float u_radius;
uniform float u_heat;
uniform vec2  u_direction;

out vec4 fragColor;

void main() {
    vec2 uv = gl_FragCoord.xy / u_resolution;
    vec4 prev = texture(u_prev, uv);

    float d = distance(uv, u_point);
    float splat = exp(-(d * d) / max(u_radius * u_radius, 1e-6)) * u_heat;

    vec3 next = prev.rgb * u_decay;
    next.rg += u_direction * splat;
    next.b = min(next.b + splat, 4.0);

    fragColor = vec4(next, 1.0);
}
`

// ────────────────────────────────── Public API ─────────────────────────────────

func GenerateVertexShader() string {
	return vertexShaderSourceGL
}

// GetThermalFragmentShader returns the composite stage, or the texture
// alignment stage when debug is set.
func GetThermalFragmentShader(debug bool) string {
	if debug {
		return debugFragmentSource
	}
	return thermalFragmentSource
}

func GetTrailFragmentShader() string {
	return trailFragmentSource
}
