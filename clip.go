package draw

import "github.com/chewxy/math32"

// frustumPlanes are the homogeneous half-spaces behind the frustum clip
// bits, in bit order. A vertex is inside a plane when dot(clip, plane) >= 0.
var frustumPlanes = [6][4]float32{
	{-1, 0, 0, 1}, // right
	{1, 0, 0, 1},  // left
	{0, -1, 0, 1}, // top
	{0, 1, 0, 1},  // bottom
	{0, 0, -1, 1}, // far
	{0, 0, 1, 1},  // near
}

// ComputeClipMask returns the frustum clip bits of a clip-space position.
func ComputeClipMask(c [4]float32) ClipMask {
	var m ClipMask
	if -c[0]+c[3] < 0 {
		m |= ClipRight
	}
	if c[0]+c[3] < 0 {
		m |= ClipLeft
	}
	if -c[1]+c[3] < 0 {
		m |= ClipTop
	}
	if c[1]+c[3] < 0 {
		m |= ClipBottom
	}
	if -c[2]+c[3] < 0 {
		m |= ClipFar
	}
	if c[2]+c[3] < 0 {
		m |= ClipNear
	}
	return m
}

// maxClipPlanes counts frustum and user planes.
const maxClipPlanes = 6 + MaxUserClipPlanes

// Each plane may add two vertices to the polygon.
const clipTemps = 3 + 2*maxClipPlanes

type clipStage struct {
	StageBase
	in, out       [clipTemps]VertexRef
	inEdge, oEdge [clipTemps]uint8
}

func newClipStage(p *Pipeline) (*clipStage, error) {
	s := &clipStage{StageBase: StageBase{Pipe: p, Name: "clip"}}
	if err := s.AllocTemps(clipTemps); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *clipStage) plane(i int) [4]float32 {
	if i < len(frustumPlanes) {
		return frustumPlanes[i]
	}
	return s.Pipe.clipPlanes[i-len(frustumPlanes)]
}

func dot4(a, b [4]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
}

// activePlanes returns the planes named by mask. User plane bits without a
// configured plane are ignored.
func (s *clipStage) activePlanes(mask ClipMask) ClipMask {
	for i := len(frustumPlanes) + len(s.Pipe.clipPlanes); i < maxClipPlanes; i++ {
		mask &^= 1 << uint(i)
	}
	return mask
}

func (s *clipStage) inside(v *Vertex, mask ClipMask) bool {
	for i := 0; i < maxClipPlanes; i++ {
		if mask&(1<<uint(i)) != 0 && dot4(v.Clip, s.plane(i)) < 0 {
			return false
		}
	}
	return true
}

func (s *clipStage) Point(p *Prim) {
	v := s.V(p.V[0])
	if v.ClipMask&ClipFrustum != 0 {
		return
	}
	if s.inside(v, s.activePlanes(v.ClipMask)) {
		s.ForwardPoint(p)
	}
}

func (s *clipStage) Line(p *Prim) {
	v0, v1 := s.V(p.V[0]), s.V(p.V[1])
	if v0.ClipMask&v1.ClipMask&ClipFrustum != 0 {
		return
	}
	mask := s.activePlanes(v0.ClipMask | v1.ClipMask)
	if mask == 0 {
		s.ForwardLine(p)
		return
	}

	var t0, t1 float32
	for i := 0; i < maxClipPlanes; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		pl := s.plane(i)
		dp0 := dot4(v0.Clip, pl)
		dp1 := dot4(v1.Clip, pl)
		if dp1 < 0 {
			t1 = math32.Max(t1, dp1/(dp1-dp0))
		}
		if dp0 < 0 {
			t0 = math32.Max(t0, dp0/(dp0-dp1))
		}
		if t0+t1 >= 1 {
			return
		}
	}

	np := *p
	if t0 > 0 {
		np.V[0] = s.Temp(0)
		s.Pipe.interpolate(s.V(np.V[0]), t0, v0, v1)
	}
	if t1 > 0 {
		np.V[1] = s.Temp(1)
		s.Pipe.interpolate(s.V(np.V[1]), t1, v1, v0)
	}
	s.ForwardLine(&np)
}

func (s *clipStage) Tri(p *Prim) {
	v0, v1, v2 := s.V(p.V[0]), s.V(p.V[1]), s.V(p.V[2])
	if v0.ClipMask&v1.ClipMask&v2.ClipMask&ClipFrustum != 0 {
		return
	}
	mask := s.activePlanes(v0.ClipMask | v1.ClipMask | v2.ClipMask)
	if mask == 0 {
		s.ForwardTri(p)
		return
	}
	s.clipTri(p, mask)
}

// clipTri runs Sutherland-Hodgman against every plane in mask and emits the
// result as a fan anchored at the first vertex.
func (s *clipStage) clipTri(p *Prim, mask ClipMask) {
	in, out := s.in[:0], s.out[:0]
	inEdge, outEdge := s.inEdge[:0], s.oEdge[:0]
	for i := 0; i < 3; i++ {
		in = append(in, p.V[i])
		inEdge = append(inEdge, p.EdgeFlags>>uint(i)&1)
	}

	tmp := 0
	cut := false
	for i := 0; i < maxClipPlanes && len(in) >= 3; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		pl := s.plane(i)

		out, outEdge = out[:0], outEdge[:0]
		prev := in[len(in)-1]
		prevEdge := inEdge[len(in)-1]
		dpPrev := dot4(s.V(prev).Clip, pl)
		for j := range in {
			cur := in[j]
			dp := dot4(s.V(cur).Clip, pl)
			if dp < 0 {
				cut = true
			}

			if dpPrev >= 0 {
				out = append(out, prev)
				outEdge = append(outEdge, prevEdge)
			}
			if (dp < 0) != (dpPrev < 0) {
				nv := s.Temp(tmp)
				tmp++
				if dp < 0 {
					// Leaving. The edge from here runs along the plane.
					t := dp / (dp - dpPrev)
					s.Pipe.interpolate(s.V(nv), t, s.V(cur), s.V(prev))
					out = append(out, nv)
					outEdge = append(outEdge, 0)
				} else {
					t := dpPrev / (dpPrev - dp)
					s.Pipe.interpolate(s.V(nv), t, s.V(prev), s.V(cur))
					out = append(out, nv)
					outEdge = append(outEdge, prevEdge)
				}
			}
			prev, prevEdge, dpPrev = cur, inEdge[j], dp
		}
		in, out = out, in
		inEdge, outEdge = outEdge, inEdge
	}

	if !cut {
		s.ForwardTri(p)
		return
	}
	n := len(in)
	for i := 2; i < n; i++ {
		var flags uint8
		flags |= inEdge[i-1]
		if i == n-1 {
			flags |= inEdge[i] << 1
		}
		if i == 2 {
			flags |= inEdge[0] << 2
		}
		tri := Prim{
			V:            [3]VertexRef{in[i-1], in[i], in[0]},
			EdgeFlags:    flags,
			ResetStipple: p.ResetStipple,
		}
		s.ForwardTri(&tri)
	}
}

// interpolate writes into dst the vertex at parameter t on the segment from
// out towards in, and recomputes its window position.
func (p *Pipeline) interpolate(dst *Vertex, t float32, out, in *Vertex) {
	for c := 0; c < 4; c++ {
		dst.Clip[c] = out.Clip[c] + t*(in.Clip[c]-out.Clip[c])
	}
	dst.ID = UndefinedVertexID
	dst.ClipMask = 0
	dst.EdgeFlag = 0
	dst.ResetStipple = false

	oow := 1 / dst.Clip[3]
	vp := &p.viewport
	dst.Data[0][0] = dst.Clip[0]*oow*vp.Scale[0] + vp.Translate[0]
	dst.Data[0][1] = dst.Clip[1]*oow*vp.Scale[1] + vp.Translate[1]
	dst.Data[0][2] = dst.Clip[2]*oow*vp.Scale[2] + vp.Translate[2]
	dst.Data[0][3] = oow

	n := p.NumSlots()
	for j := 1; j < n; j++ {
		for c := 0; c < 4; c++ {
			dst.Data[j][c] = out.Data[j][c] + t*(in.Data[j][c]-out.Data[j][c])
		}
	}
}
