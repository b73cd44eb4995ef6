package shader

import (
	"fmt"
	"strings"

	"github.com/Faultbox/midgard-foliage/internal/engine/scene"
)

// Options selects the features compiled into a program. Equal options share
// one program.
type Options struct {
	Billboard bool // expand corners by the Float4 normal along the camera axes
	Normals   bool // light with the vertex normal instead of +Y
	Lighting  bool
	Sway      bool // sway top vertices with the shared grass wave
	BlendBase bool // fade the blade base into the ground
	FadeAlpha bool // fade to transparent toward grassFadeRange
	FadeGrow  bool // sink into the ground toward grassFadeRange
}

func (o Options) String() string {
	var parts []string
	add := func(on bool, name string) {
		if on {
			parts = append(parts, name)
		}
	}
	add(o.Billboard, "billboard")
	add(o.Normals, "normals")
	add(o.Lighting, "lighting")
	add(o.Sway, "sway")
	add(o.BlendBase, "blendbase")
	add(o.FadeAlpha, "fadealpha")
	add(o.FadeGrow, "fadegrow")
	if len(parts) == 0 {
		return "fixed"
	}
	return strings.Join(parts, "+")
}

// ForMaterial picks the program for drawing a mesh of layout with m.
// Specialized grass stages are recognised by the markers in their names.
func ForMaterial(m *scene.Material, layout scene.VertexLayout) Options {
	var o Options
	if n, ok := layout.Element(scene.SemanticNormal); ok {
		o.Billboard = n.Type == scene.Float4
		o.Normals = n.Type == scene.Float3
	}
	if m == nil {
		return o
	}
	o.Lighting = m.Lighting

	vp := m.VertexProgram
	if vp == "" {
		return o
	}
	o.Sway = strings.Contains(vp, "anim_")
	o.BlendBase = strings.Contains(vp, "blend_")
	switch {
	case strings.HasSuffix(vp, "_alphagrow"):
		o.FadeAlpha, o.FadeGrow = true, true
	case strings.HasSuffix(vp, "_grow"):
		o.FadeGrow = true
	case strings.HasSuffix(vp, "_alpha"):
		o.FadeAlpha = true
	}
	return o
}

// growDepth is how far non-billboard blades sink when fully faded.
const growDepth = 1.5

// Source generates the vertex and fragment stages for o.
func Source(o Options) (vertex, fragment string) {
	var vs strings.Builder
	vs.WriteString(`#version 410 core
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec4 aNormal;
layout(location = 2) in vec4 aColor;
layout(location = 3) in vec2 aTexCoord;

uniform mat4 uModel;
uniform mat4 uViewProj;
uniform vec3 uCameraPos;
uniform vec3 uCameraRight;
uniform vec3 uCameraUp;
uniform vec2 uScroll;
uniform vec2 uEntityFade;
uniform vec3 uSunDir;
uniform vec3 uSunColor;
uniform vec3 uAmbient;
uniform float grassFadeRange;
uniform float grassTimer;
uniform float grassFrequency;
uniform vec4 grassDirection;

out vec4 vColor;
out vec2 vTexCoord;
out float vDepth;

void main() {
	vec4 world = uModel * vec4(aPosition, 1.0);
	vec4 color = aColor.zyxw;
	float dist = distance(uCameraPos.xz, world.xz);
	float fade = 1.0;
	if (grassFadeRange > 0.0) {
		fade = clamp(2.0 - 2.0 * dist / grassFadeRange, 0.0, 1.0);
	}
`)
	corner := "aNormal.xy"
	if o.FadeGrow && o.Billboard {
		corner = "aNormal.xy * fade"
	}
	if o.Billboard {
		fmt.Fprintf(&vs, "\tvec2 corner = %s;\n", corner)
		vs.WriteString("\tworld.xyz += uCameraRight * corner.x + uCameraUp * corner.y;\n")
	}
	if o.FadeGrow && !o.Billboard {
		fmt.Fprintf(&vs, "\tworld.y -= (1.0 - fade) * %.1f;\n", growDepth)
	}
	if o.Sway {
		vs.WriteString(`	if (aTexCoord.y == 0.0) {
		float offset = sin(grassTimer + world.x * grassFrequency);
		world.xz += grassDirection.xz * offset;
	}
`)
	}
	if o.FadeAlpha {
		vs.WriteString("\tcolor.a *= fade;\n")
	}
	if o.BlendBase {
		vs.WriteString("\tcolor.a *= 1.0 - aTexCoord.y;\n")
	}
	if o.Lighting {
		normal := "vec3(0.0, 1.0, 0.0)"
		if o.Normals {
			normal = "normalize(mat3(uModel) * aNormal.xyz)"
		}
		fmt.Fprintf(&vs, "\tcolor.rgb *= uAmbient + uSunColor * max(dot(%s, -uSunDir), 0.0);\n", normal)
	}
	vs.WriteString(`	float eye = distance(uCameraPos, world.xyz);
	if (uEntityFade.y > uEntityFade.x) {
		color.a *= 1.0 - clamp((eye - uEntityFade.x) / (uEntityFade.y - uEntityFade.x), 0.0, 1.0);
	}
	vColor = color;
	vTexCoord = aTexCoord + uScroll;
	vDepth = eye;
	gl_Position = uViewProj * world;
}
`)

	fragment = `#version 410 core
in vec4 vColor;
in vec2 vTexCoord;
in float vDepth;

uniform sampler2D uTexture;
uniform bool uHasTexture;
uniform float uAlphaThreshold;
uniform int uFogMode;
uniform vec3 uFogColor;
uniform float uFogDensity;
uniform float uFogStart;
uniform float uFogEnd;

out vec4 FragColor;

void main() {
	vec4 c = vColor;
	if (uHasTexture) {
		c *= texture(uTexture, vTexCoord);
	}
	if (c.a < uAlphaThreshold) {
		discard;
	}
	float f = 1.0;
	if (uFogMode == 1) {
		f = clamp((uFogEnd - vDepth) / (uFogEnd - uFogStart), 0.0, 1.0);
	} else if (uFogMode == 2) {
		f = exp(-uFogDensity * vDepth);
	}
	c.rgb = mix(uFogColor, c.rgb, f);
	FragColor = c;
}
`
	return vs.String(), fragment
}
