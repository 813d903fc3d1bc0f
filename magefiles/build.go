//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the GLSL sources to SPIR-V with glslc.
func (Build) Shaders() error {
	if _, err := executeCmd("glslc", withArgs("shaders/mesh.vert", "-o", "shaders/mesh.vert.spv"), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("glslc", withArgs("shaders/mesh.frag", "-o", "shaders/mesh.frag.spv"), withStream()); err != nil {
		return err
	}
	return nil
}

// Builds the prism binary.
func (Build) Binary() error {
	mg.Deps(Build.Shaders)
	if _, err := executeCmd("go", withArgs("build", "-o", "prism", "."), withStream()); err != nil {
		return err
	}
	return nil
}
