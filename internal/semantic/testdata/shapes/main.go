package main

import (
	"fmt"

	"example.com/shapes/geom"
)

func main() {
	p := geom.Point{X: 1}
	q := p.Add(geom.Point{Y: 2})
	fmt.Println(q.X, geom.Origin)
}
