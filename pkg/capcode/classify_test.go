package capcode_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/hapaudit/pkg/adjacency"
	"github.com/matzehuels/hapaudit/pkg/capcode"
	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
	"github.com/matzehuels/hapaudit/pkg/flower/flowertest"
)

var (
	hap     = flower.NewEventSet("hap")
	contam  = flower.NewEventSet("contam")
	noEvent = flower.NewEventSet()
)

func blocks(names ...string) []flowertest.Block {
	bs := make([]flowertest.Block, len(names))
	for i, n := range names {
		bs[i] = flowertest.Block{Name: n, Length: 8}
	}
	return bs
}

func graph(t *testing.T, bs []flowertest.Block, tracks ...flowertest.Track) *flower.Graph {
	t.Helper()
	g, err := flowertest.Build(flowertest.Spec{Blocks: bs, Tracks: tracks})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func track(name, event string, items ...string) flowertest.Track {
	return flowertest.Track{Name: name, Event: event, Items: items}
}

func classifier(t *testing.T, targets, others flower.EventSet, p capcode.Parameters, opts adjacency.Options) *capcode.Classifier {
	t.Helper()
	tr, err := adjacency.New(opts)
	if err != nil {
		t.Fatalf("adjacency.New: %v", err)
	}
	k, err := capcode.NewClassifier(tr, targets, others, p)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return k
}

func params(n, ins, del int64) capcode.Parameters {
	return capcode.Parameters{MinimumNCount: n, MaxInsertionLength: ins, MaxDeletionLength: del}
}

func TestNewClassifier(t *testing.T) {
	tr, _ := adjacency.New(adjacency.Options{})
	tests := []struct {
		name    string
		trav    *adjacency.Traverser
		targets flower.EventSet
		others  flower.EventSet
		params  capcode.Parameters
		code    errors.Code
	}{
		{"ok", tr, hap, contam, capcode.DefaultParameters(), ""},
		{"no others", tr, hap, noEvent, capcode.DefaultParameters(), ""},
		{"no traverser", nil, hap, contam, capcode.DefaultParameters(), errors.ErrCodeInvalidParameters},
		{"no targets", tr, noEvent, contam, capcode.DefaultParameters(), errors.ErrCodeInvalidEvent},
		{"overlap", tr, hap, flower.NewEventSet("hap", "contam"), capcode.DefaultParameters(), errors.ErrCodeInvalidEvent},
		{"negative", tr, hap, contam, params(-1, 0, 0), errors.ErrCodeInvalidParameters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := capcode.NewClassifier(tt.trav, tt.targets, tt.others, tt.params)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("NewClassifier() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("NewClassifier() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	acgt := func(n int) string { return "~" + strings.Repeat("ACGT", n/4+1)[:n] }
	ns := func(n int) string { return "~" + strings.Repeat("N", n) }
	defaults := capcode.DefaultParameters()

	tests := []struct {
		name   string
		blocks []flowertest.Block
		tracks []flowertest.Track
		block  string
		five   bool // classify the 5' cap instead of the 3' cap
		params capcode.Parameters
		opts   adjacency.Options

		want    capcode.Code
		wantIns int64
		wantDel int64
	}{
		{
			name:   "shared join",
			blocks: blocks("b1", "b2"),
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2"), track("a", "asm", "b1", "b2")},
			block:  "b1", params: defaults,
			want: capcode.HapNothing,
		},
		{
			name:   "contig end",
			blocks: blocks("b1", "b2"),
			tracks: []flowertest.Track{track("h", "hap", "~ACGT", "b1", "b2"), track("a", "asm", "b1", "b2")},
			block:  "b1", five: true, params: defaults,
			want: capcode.ContigEnd,
		},
		{
			name:   "contig end with insert",
			blocks: blocks("b1", "b2"),
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2"), track("a", "asm", acgt(12), "b1", "b2")},
			block:  "b1", five: true, params: defaults,
			want: capcode.ErrorContigEndWithInsert,
		},
		{
			name:   "contig end with ambiguity gap",
			blocks: blocks("b1", "b2"),
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2"), track("a", "asm", "~NNNACGTACGT", "b1", "b2")},
			block:  "b1", five: true, params: defaults,
			want: capcode.ContigEndWithAmbiguityGap,
		},
		{
			name:   "contig end with scaffold gap",
			blocks: blocks("b1", "b2"),
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2"), track("a", "asm", ns(25), "b1", "b2")},
			block:  "b1", five: true, params: defaults,
			want: capcode.ContigEndWithScaffoldGap,
		},
		{
			name:   "insertion",
			blocks: blocks("b1", "b2", "b3"),
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2", "b3"), track("a", "asm", "b1", "b2", acgt(12), "b3")},
			block:  "b2", params: params(25, 13, 1000),
			want: capcode.ErrorHapToInsert, wantIns: 12,
		},
		{
			name:   "insertion at threshold",
			blocks: blocks("b1", "b2", "b3"),
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2", "b3"), track("a", "asm", "b1", "b2", acgt(12), "b3")},
			block:  "b2", params: params(25, 12, 1000),
			want: capcode.ErrorHapToHapSameChromosome, wantIns: 12,
		},
		{
			name:   "insertion read from the far side",
			blocks: blocks("b1", "b2", "b3"),
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2", "b3"), track("a", "asm", "b1", "b2", acgt(12), "b3")},
			block:  "b3", five: true, params: defaults,
			want: capcode.ErrorHapToInsert, wantIns: 12,
		},
		{
			name:   "insertion ignored",
			blocks: blocks("b1", "b2", "b3"),
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2", "b3"), track("a", "asm", "b1", "b2", acgt(12), "b3")},
			block:  "b2", params: defaults, opts: adjacency.Options{IgnoreAdjacencyBases: true},
			want: capcode.HapNothing,
		},
		{
			name:   "inserted block",
			blocks: blocks("b1", "b2", "b6"),
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2"), track("a", "asm", "b1", "b6", "b2")},
			block:  "b1", params: defaults,
			want: capcode.ErrorHapToInsert, wantIns: 8,
		},
		{
			name:   "inserted blocks",
			blocks: blocks("b1", "b2", "b6", "b7"),
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2"), track("a", "asm", "b1", "b6", "~ACG", "b7", "b2")},
			block:  "b1", params: defaults,
			want: capcode.ErrorHapToInsert, wantIns: 19,
		},
		{
			name:   "inserted blocks read from the far side",
			blocks: blocks("b1", "b2", "b6", "b7"),
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2"), track("a", "asm", "b1", "b6", "~ACG", "b7", "b2")},
			block:  "b2", five: true, params: defaults,
			want: capcode.ErrorHapToInsert, wantIns: 19,
		},
		{
			name:   "deletion",
			blocks: blocks("b1", "b4"),
			tracks: []flowertest.Track{track("h", "hap", "b1", acgt(500), "b4"), track("a", "asm", "b1", "b4")},
			block:  "b1", params: params(25, 1000, 1000),
			want: capcode.ErrorHapToDeletion, wantDel: 500,
		},
		{
			name:   "deletion at threshold",
			blocks: blocks("b1", "b4"),
			tracks: []flowertest.Track{track("h", "hap", "b1", acgt(500), "b4"), track("a", "asm", "b1", "b4")},
			block:  "b1", params: params(25, 1000, 500),
			want: capcode.ErrorHapToHapSameChromosome, wantDel: 500,
		},
		{
			name:   "insertion and deletion",
			blocks: blocks("b1", "b2"),
			tracks: []flowertest.Track{track("h", "hap", "b1", acgt(8), "b2"), track("a", "asm", "b1", "~AC", "b2")},
			block:  "b1", params: defaults,
			want: capcode.ErrorHapToInsertAndDeletion, wantIns: 2, wantDel: 8,
		},
		{
			name:   "insertion and deletion over threshold",
			blocks: blocks("b1", "b2"),
			tracks: []flowertest.Track{track("h", "hap", "b1", acgt(8), "b2"), track("a", "asm", "b1", "~AC", "b2")},
			block:  "b1", params: params(25, 1000, 8),
			want: capcode.ErrorHapToHapSameChromosome, wantIns: 2, wantDel: 8,
		},
		{
			name:   "scaffold gap",
			blocks: blocks("b1", "b2", "b3"),
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2", "b3"), track("a", "asm", "b1", "b2", ns(25), "b3")},
			block:  "b2", params: params(25, 10, 10),
			want: capcode.ScaffoldGap, wantIns: 25,
		},
		{
			name:   "ambiguity gap below minimum",
			blocks: blocks("b1", "b2", "b3"),
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2", "b3"), track("a", "asm", "b1", "b2", ns(24), "b3")},
			block:  "b2", params: defaults,
			want: capcode.AmbiguityGap, wantIns: 24,
		},
		{
			name: "bounding Ns",
			blocks: []flowertest.Block{
				{Name: "b1", Length: 8},
				{Name: "b2", Length: 8, Bases: "NNACGTAC"},
			},
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2"), track("a", "asm", "b1", "~ACG", "b2")},
			block:  "b1", params: defaults,
			want: capcode.AmbiguityGap, wantIns: 3,
		},
		{
			name:   "contamination",
			blocks: blocks("b1", "b2", "b5"),
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2"), track("c", "contam", "b5"), track("a", "asm", "b1", "b5")},
			block:  "b1", params: defaults,
			want: capcode.ErrorHapToContamination,
		},
		{
			name:   "insert to contamination",
			blocks: blocks("b1", "b2", "b5"),
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2"), track("c", "contam", "b5"), track("a", "asm", "b1", "~ACG", "b5")},
			block:  "b1", params: defaults,
			want: capcode.ErrorHapToInsertToContamination,
		},
		{
			name:   "different chromosomes",
			blocks: blocks("b1", "b2", "b3", "b4"),
			tracks: []flowertest.Track{
				track("h1", "hap", "b1", "b2"),
				track("h2", "hap", "b3", "b4"),
				track("a", "asm", "b1", "b4"),
			},
			block: "b1", params: defaults,
			want: capcode.ErrorHapToHapDifferentChromosomes,
		},
		{
			name:   "same chromosome out of order",
			blocks: blocks("b1", "b2", "b3"),
			tracks: []flowertest.Track{track("h", "hap", "b1", "b2", "b3"), track("a", "asm", "b3", "b1")},
			block:  "b3", params: defaults,
			want: capcode.ErrorHapToHapSameChromosome,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph(t, tt.blocks, tt.tracks...)
			k := classifier(t, hap, contam, tt.params, tt.opts)
			seg := flowertest.Forward(g, tt.block, "a")
			c := seg.Cap3()
			if tt.five {
				c = seg.Cap5()
			}
			res, err := k.Classify(c)
			if err != nil {
				t.Fatalf("Classify(%v): %v", c, err)
			}
			if res.Code != tt.want {
				t.Errorf("Code = %v, want %v (path %d, Ns %d)", res.Code, tt.want, res.PathLength, res.NCount)
			}
			if res.InsertLength != tt.wantIns || res.DeleteLength != tt.wantDel {
				t.Errorf("insert, delete = %d, %d; want %d, %d", res.InsertLength, res.DeleteLength, tt.wantIns, tt.wantDel)
			}
		})
	}
}

func TestClassifyHapSwitch(t *testing.T) {
	g := graph(t, blocks("b1", "b2", "b3"),
		track("p", "pat", "b1", "b2"),
		track("m", "mat", "b2", "b3"),
		track("a", "asm", "b1", "b2", "b3"),
	)
	k := classifier(t, flower.NewEventSet("pat", "mat"), noEvent, capcode.DefaultParameters(), adjacency.Options{})

	tests := []struct {
		cap  flower.Cap
		want capcode.Code
	}{
		{flowertest.Forward(g, "b1", "a").Cap3(), capcode.HapSwitch},
		{flowertest.Forward(g, "b2", "a").Cap5(), capcode.HapSwitch},
		{flowertest.Forward(g, "b2", "a").Cap3(), capcode.HapSwitch},
	}
	for _, tt := range tests {
		res, err := k.Classify(tt.cap)
		if err != nil {
			t.Fatalf("Classify(%v): %v", tt.cap, err)
		}
		if res.Code != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.cap, res.Code, tt.want)
		}
	}
}

func TestClassifyNested(t *testing.T) {
	g, err := flowertest.Build(flowertest.Spec{
		Blocks: []flowertest.Block{
			{Name: "b1", Length: 8},
			{Name: "b2", Length: 8, Flower: "n1"},
			{Name: "b3", Length: 8},
		},
		Nests: []flower.NestSpec{{Name: "n1"}},
		Tracks: []flowertest.Track{
			track("h", "hap", "b1", "b2", "b3"),
			track("a", "asm", "b1", "~ACGT", "b2", "b3"),
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	k := classifier(t, hap, noEvent, capcode.DefaultParameters(), adjacency.Options{})

	res, err := k.Classify(flowertest.Forward(g, "b1", "a").Cap3())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Code != capcode.ErrorHapToInsert || res.InsertLength != 4 {
		t.Errorf("Classify(b1 3') = %v insert %d, want ERROR_HAP_TO_INSERT insert 4", res.Code, res.InsertLength)
	}

	res, err = k.Classify(flowertest.Forward(g, "b2", "a").Cap3())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Code != capcode.HapNothing {
		t.Errorf("Classify(b2 3') = %v, want HAP_NOTHING", res.Code)
	}
}

func TestClassifyInvariant(t *testing.T) {
	g := graph(t, blocks("b1", "b2", "b5"),
		track("h", "hap", "b1", "b2"),
		track("c", "contam", "b5"),
		track("a", "asm", "b1", "b5"),
	)
	k := classifier(t, hap, contam, capcode.DefaultParameters(), adjacency.Options{})
	_, err := k.Classify(flowertest.Forward(g, "b5", "a").Cap5())
	if !errors.IsInvariant(err) {
		t.Errorf("Classify(non-target end) error = %v, want invariant violation", err)
	}
}

func TestClassifyEvent(t *testing.T) {
	g := graph(t, blocks("b1", "b2", "b3"),
		track("h", "hap", "b1", "b2", "b3"),
		track("a", "asm", "b1", "b2", "~ACGTACGTACGT", "b3"),
	)
	k := classifier(t, hap, noEvent, capcode.DefaultParameters(), adjacency.Options{})
	bs, err := k.ClassifyEvent(g, "asm")
	if err != nil {
		t.Fatalf("ClassifyEvent: %v", err)
	}
	if len(bs) != 6 {
		t.Fatalf("len(boundaries) = %d, want 6", len(bs))
	}
	counts := capcode.Counts(bs)
	want := map[capcode.Code]int{
		capcode.ContigEnd:        2,
		capcode.HapNothing:       2,
		capcode.ErrorHapToInsert: 2,
	}
	for code, n := range want {
		if counts[code] != n {
			t.Errorf("counts[%v] = %d, want %d", code, counts[code], n)
		}
	}
	for _, b := range bs {
		if b.Cap.Event().Header() != "asm" {
			t.Errorf("boundary %v is not on the chosen event", b.Cap)
		}
	}
}

func ExampleClassifier_Classify() {
	g := flowertest.MustBuild(flowertest.Spec{
		Blocks: []flowertest.Block{{Name: "b1", Length: 8}, {Name: "b2", Length: 8}},
		Tracks: []flowertest.Track{
			{Name: "h", Event: "hap", Items: []string{"b1", "b2"}},
			{Name: "a", Event: "asm", Items: []string{"b1", "~NNNNNNNNNNNNNNNNNNNNNNNNN", "b2"}},
		},
	})
	tr, _ := adjacency.New(adjacency.Options{})
	k, _ := capcode.NewClassifier(tr, flower.NewEventSet("hap"), flower.NewEventSet(), capcode.DefaultParameters())
	res, _ := k.Classify(flowertest.Forward(g, "b1", "a").Cap3())
	fmt.Println(res.Code, res.InsertLength)
	// Output: SCAFFOLD_GAP 25
}
