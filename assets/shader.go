// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package assets

import (
	"fmt"
	"path"
	"strings"

	"github.com/devblok/lumen/gfx"
)

const shaderSuffix = ".spv"

// ShaderStageOf tells the stage of a compiled shader from its name.
// The file name must not contain more than two dots: the first part is the
// name of the shader, the second is the stage and the last one ensures that
// the shader is compiled (only compiled shaders have an .spv extension).
func ShaderStageOf(name string) (gfx.ShaderStage, error) {
	base := path.Base(name)
	if !strings.HasSuffix(base, shaderSuffix) {
		return 0, fmt.Errorf("shader %s is not compiled", name)
	}

	nodes := strings.Split(strings.TrimSuffix(base, shaderSuffix), ".")
	if len(nodes) != 2 {
		return 0, fmt.Errorf("shader %s is not named <name>.<stage>.spv", name)
	}

	switch nodes[1] {
	case "vert":
		return gfx.VertexStage, nil
	case "frag":
		return gfx.FragmentStage, nil
	}
	return 0, fmt.Errorf("shader %s has unknown stage %q", name, nodes[1])
}

// CheckShaderSet verifies both shaders of the set are named for their stage.
func CheckShaderSet(set gfx.ShaderSet) error {
	if stage, err := ShaderStageOf(set.Vertex); err != nil {
		return err
	} else if stage != gfx.VertexStage {
		return fmt.Errorf("vertex shader %s is not a vertex stage", set.Vertex)
	}
	if stage, err := ShaderStageOf(set.Fragment); err != nil {
		return err
	} else if stage != gfx.FragmentStage {
		return fmt.Errorf("fragment shader %s is not a fragment stage", set.Fragment)
	}
	return nil
}

// ReadShaders loads the bytecode of both stages of set from src.
func ReadShaders(src Source, set gfx.ShaderSet) (vert, frag []byte, err error) {
	if vert, err = src.ReadFile(set.Vertex); err != nil {
		return nil, nil, fmt.Errorf("%s: %s", set.Vertex, err)
	}
	if frag, err = src.ReadFile(set.Fragment); err != nil {
		return nil, nil, fmt.Errorf("%s: %s", set.Fragment, err)
	}
	return vert, frag, nil
}
