package main

import "github.com/earthview/globe/pkg/core"

func mustViewpoint(name, descriptor string) *core.Viewpoint {
	return &core.Viewpoint{Name: name, Descriptor: descriptor}
}
