package particle

import (
	"math"

	"amcl-go/pose"
)

// clusterStats bins samples by discretized (x,y,yaw), flood-fills adjacent
// occupied bins into connected clusters, and derives each cluster's and the
// whole set's weighted mean/covariance. Mean yaw is atan2(sum w*sin, sum
// w*cos); the yaw variance uses the circular-variance estimate
// -2*ln(|mean resultant vector|), matching the classical AMCL pf_cluster.c.
func clusterStats(set *Set) {
	n := len(set.Samples)
	if n == 0 {
		set.Clusters = nil
		set.Mean = pose.Vector{}
		set.Cov = pose.Matrix{}
		return
	}

	bin := defaultKLDBinSize
	keyOf := func(p pose.Vector) klBinKey {
		return klBinKey{
			bx:   int(math.Floor(p.X / bin.X)),
			by:   int(math.Floor(p.Y / bin.Y)),
			byaw: int(math.Floor(pose.Normalize(p.Yaw) / bin.Yaw)),
		}
	}

	keys := make([]klBinKey, n)
	occupied := make(map[klBinKey]struct{}, n)
	for i, s := range set.Samples {
		k := keyOf(s.Pose)
		keys[i] = k
		occupied[k] = struct{}{}
	}

	// Union-find over occupied bins using 26-neighborhood adjacency.
	parent := make(map[klBinKey]klBinKey, len(occupied))
	for k := range occupied {
		parent[k] = k
	}
	var find func(klBinKey) klBinKey
	find = func(k klBinKey) klBinKey {
		for parent[k] != k {
			parent[k] = parent[parent[k]]
			k = parent[k]
		}
		return k
	}
	union := func(a, b klBinKey) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for k := range occupied {
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for dz := -1; dz <= 1; dz++ {
					if dx == 0 && dy == 0 && dz == 0 {
						continue
					}
					nb := klBinKey{bx: k.bx + dx, by: k.by + dy, byaw: k.byaw + dz}
					if _, ok := occupied[nb]; ok {
						union(k, nb)
					}
				}
			}
		}
	}

	rootIndex := make(map[klBinKey]int)
	accum := make([]*Cluster, 0)
	clusterOf := make([]int, n)
	for i, k := range keys {
		root := find(k)
		idx, ok := rootIndex[root]
		if !ok {
			idx = len(accum)
			rootIndex[root] = idx
			accum = append(accum, &Cluster{})
		}
		clusterOf[i] = idx
	}

	var setW, setX, setY, setXX, setYY, setXY, setCos, setSin float64

	for i, s := range set.Samples {
		c := accum[clusterOf[i]]
		w := s.Weight
		c.sumW += w
		c.sumX += w * s.Pose.X
		c.sumY += w * s.Pose.Y
		c.sumXX += w * s.Pose.X * s.Pose.X
		c.sumYY += w * s.Pose.Y * s.Pose.Y
		c.sumXY += w * s.Pose.X * s.Pose.Y
		c.sumCosYaw += w * math.Cos(s.Pose.Yaw)
		c.sumSinYaw += w * math.Sin(s.Pose.Yaw)
		c.MemberCount++

		setW += w
		setX += w * s.Pose.X
		setY += w * s.Pose.Y
		setXX += w * s.Pose.X * s.Pose.X
		setYY += w * s.Pose.Y * s.Pose.Y
		setXY += w * s.Pose.X * s.Pose.Y
		setCos += w * math.Cos(s.Pose.Yaw)
		setSin += w * math.Sin(s.Pose.Yaw)
	}

	clusters := make([]Cluster, len(accum))
	for i, c := range accum {
		finalizeMoments(c, c.sumW, c.sumX, c.sumY, c.sumXX, c.sumYY, c.sumXY, c.sumCosYaw, c.sumSinYaw)
		clusters[i] = *c
	}
	set.Clusters = clusters

	setMean := &Cluster{}
	finalizeMoments(setMean, setW, setX, setY, setXX, setYY, setXY, setCos, setSin)
	set.Mean = setMean.Mean
	set.Cov = setMean.Cov
}

func finalizeMoments(c *Cluster, w, sx, sy, sxx, syy, sxy, scos, ssin float64) {
	c.Weight = w
	if w <= 0 {
		return
	}
	mx := sx / w
	my := sy / w
	c.Mean.X = mx
	c.Mean.Y = my
	c.Mean.Yaw = math.Atan2(ssin, scos)

	c.Cov[0][0] = sxx/w - mx*mx
	c.Cov[1][1] = syy/w - my*my
	c.Cov[0][1] = sxy/w - mx*my
	c.Cov[1][0] = c.Cov[0][1]

	rc := scos / w
	rs := ssin / w
	r := math.Sqrt(rc*rc + rs*rs)
	if r < 1e-9 {
		r = 1e-9
	}
	if r > 1 {
		r = 1
	}
	c.Cov[2][2] = -2.0 * math.Log(r)
}
