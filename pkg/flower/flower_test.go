package flower_test

import (
	"testing"

	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
	"github.com/matzehuels/hapaudit/pkg/flower/flowertest"
)

func linear(t *testing.T) *flower.Graph {
	t.Helper()
	g, err := flowertest.Build(flowertest.Spec{
		Blocks: []flowertest.Block{{Name: "b1", Length: 4}, {Name: "b2", Length: 5}},
		Tracks: []flowertest.Track{
			{Name: "h", Event: "hap", Items: []string{"b1", "~AC", "b2"}},
			{Name: "a", Event: "asm", Items: []string{"~G", "b1", "-b2"}},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestGraphValidate(t *testing.T) {
	g := linear(t)
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if got := len(g.Flowers()); got != 1 {
		t.Errorf("len(Flowers()) = %d, want 1", got)
	}
	if got := len(g.Events()); got != 2 {
		t.Errorf("len(Events()) = %d, want 2", got)
	}
}

func TestSegmentCoordinates(t *testing.T) {
	g := linear(t)

	b1 := flowertest.Segment(g, "b1", "h")
	if got := b1.Cap5().Coordinate(); got != 0 {
		t.Errorf("b1 5' coordinate = %d, want 0", got)
	}
	if got := b1.Cap3().Coordinate(); got != 3 {
		t.Errorf("b1 3' coordinate = %d, want 3", got)
	}
	if !b1.Cap5().Side() || b1.Cap3().Side() {
		t.Error("b1 caps have wrong sides")
	}

	b2 := flowertest.Segment(g, "b2", "a")
	if b2.Strand() {
		t.Error("b2 on a should be on the negative strand")
	}
	if got := b2.Start(); got != 9 {
		t.Errorf("b2 Start() = %d, want 9", got)
	}
	if got := b2.Low(); got != 5 {
		t.Errorf("b2 Low() = %d, want 5", got)
	}
	if got := b2.Bases(); got != "ACGTA" {
		t.Errorf("b2 Bases() = %q, want %q", got, "ACGTA")
	}
	if got := b2.Reverse().Bases(); got != "TACGT" {
		t.Errorf("b2 reverse Bases() = %q, want %q", got, "TACGT")
	}
}

func TestAdjacency(t *testing.T) {
	g := linear(t)
	b1 := flowertest.Segment(g, "b1", "a")
	b2 := flowertest.Forward(g, "b2", "a")

	adj, ok := b1.Cap3().Adjacency()
	if !ok || adj != b2.Cap5() {
		t.Fatalf("b1 3' adjacency = %v, want %v", adj, b2.Cap5())
	}
	back, _ := adj.Adjacency()
	if back != b1.Cap3() {
		t.Errorf("adjacency is not symmetric: %v", back)
	}
	rev, _ := b1.Cap3().Reverse().Adjacency()
	if rev != b2.Cap5().Reverse() {
		t.Errorf("reverse adjacency = %v, want %v", rev, b2.Cap5().Reverse())
	}

	tel, ok := b1.Cap5().Adjacency()
	if !ok {
		t.Fatal("b1 5' cap has no adjacency")
	}
	if tel.Coordinate() != -1 {
		t.Errorf("telomere coordinate = %d, want -1", tel.Coordinate())
	}
	if _, ok := tel.Segment(); ok {
		t.Error("telomere cap has a segment")
	}
	if !tel.End().IsStubEnd() || tel.End().Attached() {
		t.Error("telomere end should be a free stub")
	}
}

func TestReversal(t *testing.T) {
	g := linear(t)
	s := flowertest.Segment(g, "b1", "h")
	c := s.Cap5()

	if c.Reverse().Reverse() != c {
		t.Error("cap reversal is not an involution")
	}
	if s.Reverse().Reverse() != s {
		t.Error("segment reversal is not an involution")
	}
	if s.Reverse().Key() != s.Key() {
		t.Error("segment key depends on orientation")
	}
	if s.Reverse().Cap5() != s.Cap3().Reverse() {
		t.Error("reverse segment 5' cap should be the reversed 3' cap")
	}
	if c.Reverse().Strand() == c.Strand() || c.Reverse().Side() == c.Side() {
		t.Error("reversal must flip strand and side")
	}
	other, ok := c.OtherSegmentCap()
	if !ok || other != s.Cap3() {
		t.Errorf("OtherSegmentCap() = %v, want %v", other, s.Cap3())
	}
	seg, ok := c.Reverse().Segment()
	if !ok || seg != s.Reverse() {
		t.Errorf("reversed cap segment = %v, want %v", seg, s.Reverse())
	}
}

func TestGroups(t *testing.T) {
	g := linear(t)
	root := g.Root()
	// Per sequence: two telomeres; shared: b1 and b2 ends.
	if got := len(root.Ends()); got != 8 {
		t.Errorf("len(Ends()) = %d, want 8", got)
	}
	// a reads b2 reversed, which links both b2 ends into one group.
	if got := len(root.Groups()); got != 2 {
		t.Errorf("len(Groups()) = %d, want 2", got)
	}
	for _, grp := range root.Groups() {
		if !grp.IsTerminal() {
			t.Errorf("group %d should be terminal", grp.Name())
		}
		for _, e := range grp.Ends() {
			if e.Group() != grp {
				t.Errorf("%v does not point back at its group", e)
			}
		}
	}
	b1 := flowertest.Segment(g, "b1", "h")
	b2 := flowertest.Segment(g, "b2", "h")
	if b1.Cap3().End().Group() != b2.Cap5().End().Group() {
		t.Error("adjacent ends should share a group")
	}
}

func TestNesting(t *testing.T) {
	g, err := flowertest.Build(flowertest.Spec{
		Blocks: []flowertest.Block{
			{Name: "b1", Length: 4},
			{Name: "b2", Length: 4, Flower: "n1"},
			{Name: "b3", Length: 4},
		},
		Nests: []flower.NestSpec{{Name: "n1"}},
		Tracks: []flowertest.Track{
			{Name: "h", Event: "hap", Items: []string{"b1", "b2", "b3"}},
			{Name: "a", Event: "asm", Items: []string{"b1", "~AA", "b2", "b3"}},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	fs := g.Flowers()
	if len(fs) != 2 {
		t.Fatalf("len(Flowers()) = %d, want 2", len(fs))
	}
	n1, ok := g.Flower("n1")
	if !ok || n1 != fs[1] {
		t.Fatal("nested flower n1 not found")
	}
	if n1.Depth() != 1 || n1.ParentGroup().Flower() != g.Root() {
		t.Errorf("n1 depth %d, parent %v", n1.Depth(), n1.ParentGroup().Flower())
	}

	b1 := flowertest.Segment(g, "b1", "a")
	b3 := flowertest.Segment(g, "b3", "a")
	collapsed, _ := b1.Cap3().Adjacency()
	if collapsed != b3.Cap5() {
		t.Errorf("root adjacency of b1 = %v, want collapsed %v", collapsed, b3.Cap5())
	}
	if b1.Cap3().End().Group().Nested() != n1 {
		t.Error("b1 3' group should own n1")
	}

	copyCap, ok := n1.Cap(b1.Cap3().Name())
	if !ok {
		t.Fatal("n1 has no copy of b1 3' cap")
	}
	if _, ok := copyCap.Segment(); ok {
		t.Error("nested copy should have no segment")
	}
	if !copyCap.End().IsStubEnd() || !copyCap.End().Attached() {
		t.Error("nested copy should sit on an attached stub end")
	}
	if copyCap.Coordinate() != b1.Cap3().Coordinate() {
		t.Error("nested copy should keep its coordinate")
	}
	b2 := flowertest.Segment(g, "b2", "a")
	if adj, _ := copyCap.Adjacency(); adj != b2.Cap5() {
		t.Errorf("nested adjacency = %v, want %v", adj, b2.Cap5())
	}
	if got := len(n1.Ends()); got != 4 {
		t.Errorf("len(n1.Ends()) = %d, want 4", got)
	}
}

func TestBuildErrors(t *testing.T) {
	seq := func(name string, n int) flower.SequenceSpec {
		b := make([]byte, n)
		for i := range b {
			b[i] = 'A'
		}
		return flower.SequenceSpec{Name: name, Event: "e", Bases: string(b)}
	}
	place := func(s string, at int64) []flower.Placement {
		return []flower.Placement{{Sequence: s, Start: at}}
	}

	tests := []struct {
		name  string
		build func() *flower.Builder
	}{
		{"no sequences", func() *flower.Builder { return flower.NewBuilder() }},
		{"duplicate sequence", func() *flower.Builder {
			return flower.NewBuilder().Sequence(seq("s", 4)).Sequence(seq("s", 4))
		}},
		{"unknown sequence", func() *flower.Builder {
			return flower.NewBuilder().Sequence(seq("s", 4)).
				Block(flower.BlockSpec{Name: "b", Length: 2, Segments: place("t", 0)})
		}},
		{"outside sequence", func() *flower.Builder {
			return flower.NewBuilder().Sequence(seq("s", 4)).
				Block(flower.BlockSpec{Name: "b", Length: 2, Segments: place("s", 3)})
		}},
		{"overlap", func() *flower.Builder {
			return flower.NewBuilder().Sequence(seq("s", 10)).
				Block(flower.BlockSpec{Name: "b1", Length: 4, Segments: place("s", 0)}).
				Block(flower.BlockSpec{Name: "b2", Length: 4, Segments: place("s", 3)})
		}},
		{"zero length", func() *flower.Builder {
			return flower.NewBuilder().Sequence(seq("s", 4)).
				Block(flower.BlockSpec{Name: "b", Length: 0, Segments: place("s", 0)})
		}},
		{"no segments", func() *flower.Builder {
			return flower.NewBuilder().Sequence(seq("s", 4)).Block(flower.BlockSpec{Name: "b", Length: 2})
		}},
		{"nest named root", func() *flower.Builder {
			return flower.NewBuilder().Sequence(seq("s", 4)).Nest(flower.NestSpec{Name: flower.RootName})
		}},
		{"unknown parent", func() *flower.Builder {
			return flower.NewBuilder().Sequence(seq("s", 4)).Nest(flower.NestSpec{Name: "n", Parent: "m"})
		}},
		{"nest cycle", func() *flower.Builder {
			return flower.NewBuilder().Sequence(seq("s", 4)).
				Nest(flower.NestSpec{Name: "n", Parent: "m"}).
				Nest(flower.NestSpec{Name: "m", Parent: "n"})
		}},
		{"empty nest", func() *flower.Builder {
			return flower.NewBuilder().Sequence(seq("s", 4)).Nest(flower.NestSpec{Name: "n"})
		}},
		{"nest spans groups", func() *flower.Builder {
			return flower.NewBuilder().Sequence(seq("s", 20)).
				Nest(flower.NestSpec{Name: "n"}).
				Block(flower.BlockSpec{Name: "b1", Length: 2, Segments: place("s", 0)}).
				Block(flower.BlockSpec{Name: "b2", Length: 2, Flower: "n", Segments: place("s", 3)}).
				Block(flower.BlockSpec{Name: "b3", Length: 2, Segments: place("s", 6)}).
				Block(flower.BlockSpec{Name: "b4", Length: 2, Flower: "n", Segments: place("s", 9)}).
				Block(flower.BlockSpec{Name: "b5", Length: 2, Segments: place("s", 12)})
		}},
		{"nests share group", func() *flower.Builder {
			return flower.NewBuilder().Sequence(seq("s", 20)).
				Nest(flower.NestSpec{Name: "n"}).
				Nest(flower.NestSpec{Name: "m"}).
				Block(flower.BlockSpec{Name: "b1", Length: 2, Segments: place("s", 0)}).
				Block(flower.BlockSpec{Name: "b2", Length: 2, Flower: "n", Segments: place("s", 3)}).
				Block(flower.BlockSpec{Name: "b3", Length: 2, Flower: "m", Segments: place("s", 6)}).
				Block(flower.BlockSpec{Name: "b4", Length: 2, Segments: place("s", 9)})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Build()
			if err == nil {
				t.Fatal("Build() succeeded, want error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidGraph) {
				t.Errorf("Build() error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidGraph)
			}
		})
	}
}

func TestEventSet(t *testing.T) {
	s := flower.NewEventSet("hapB", "hapA", "hapA")
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if !s.Contains("hapA") || s.Contains("asm") {
		t.Error("Contains() mismatch")
	}
	if got := s.String(); got != "{hapA,hapB}" {
		t.Errorf("String() = %q", got)
	}
	if s.Disjoint(flower.NewEventSet("hapA")) {
		t.Error("sets sharing hapA reported disjoint")
	}
	if !s.Disjoint(flower.NewEventSet("contam")) {
		t.Error("disjoint sets reported overlapping")
	}
	if !s.Disjoint(flower.EventSet{}) {
		t.Error("zero EventSet should be disjoint from everything")
	}
}

func TestReverseComplement(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"ACGT", "ACGT"},
		{"AACG", "CGTT"},
		{"ACGTNacgtn", "nacgtNACGT"},
	}
	for _, tt := range tests {
		if got := flower.ReverseComplement(tt.in); got != tt.want {
			t.Errorf("ReverseComplement(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSequenceSubstring(t *testing.T) {
	g, err := flower.NewBuilder().
		Sequence(flower.SequenceSpec{Name: "s", Event: "e", Start: 10, Bases: "AACCGGTT"}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	s, _ := g.Sequence("s")
	tests := []struct {
		start, length int64
		strand        bool
		want          string
	}{
		{10, 2, true, "AA"},
		{12, 3, true, "CCG"},
		{12, 3, false, "CGG"},
		{16, 10, true, "TT"},
		{5, 7, true, "AA"},
		{18, 1, true, ""},
	}
	for _, tt := range tests {
		if got := s.Substring(tt.start, tt.length, tt.strand); got != tt.want {
			t.Errorf("Substring(%d, %d, %v) = %q, want %q", tt.start, tt.length, tt.strand, got, tt.want)
		}
	}
}
