package bed_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/hapaudit/pkg/adjacency"
	"github.com/matzehuels/hapaudit/pkg/bed"
	"github.com/matzehuels/hapaudit/pkg/capcode"
	"github.com/matzehuels/hapaudit/pkg/flower"
	"github.com/matzehuels/hapaudit/pkg/flower/flowertest"
	"github.com/matzehuels/hapaudit/pkg/paths"
	"github.com/matzehuels/hapaudit/pkg/scaffold"
)

func fixture(t *testing.T, asm []string) ([]*paths.ContigPath, *scaffold.Scaffolds) {
	t.Helper()
	g, err := flowertest.Build(flowertest.Spec{
		Blocks: []flowertest.Block{
			{Name: "b1", Length: 8}, {Name: "b2", Length: 8}, {Name: "b3", Length: 8}, {Name: "b4", Length: 8},
		},
		Tracks: []flowertest.Track{
			{Name: "h", Event: "hap", Items: []string{"b1", "b2", "b3", "b4"}},
			{Name: "a", Event: "asm", Items: asm},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	hap := flower.NewEventSet("hap")
	tr, _ := adjacency.New(adjacency.Options{})
	k, err := capcode.NewClassifier(tr, hap, flower.NewEventSet(), capcode.DefaultParameters())
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	ps, err := paths.Build(g, "asm", hap, tr)
	if err != nil {
		t.Fatalf("paths.Build: %v", err)
	}
	s, err := scaffold.Merge(ps, k)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	return ps, s
}

func TestContigIntervals(t *testing.T) {
	gap := "~" + strings.Repeat("N", 30)
	tests := []struct {
		name string
		asm  []string
		want []bed.Interval
	}{
		{
			name: "forward",
			asm:  []string{"~AC", "b1", "b2", gap, "b3", "b4"},
			want: []bed.Interval{{"a", 2, 18}, {"a", 48, 64}},
		},
		{
			name: "reverse",
			asm:  []string{"-b4", "-b3", gap, "-b2", "-b1"},
			want: []bed.Interval{{"a", 46, 62}, {"a", 0, 16}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps, _ := fixture(t, tt.asm)
			got, err := bed.ContigIntervals(ps)
			if err != nil {
				t.Fatalf("ContigIntervals: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("interval %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScaffoldIntervals(t *testing.T) {
	gap := "~" + strings.Repeat("N", 30)
	_, s := fixture(t, []string{"b1", gap, "b2", "~ACGT", "b3", gap, "b4"})
	got, err := bed.ScaffoldIntervals(s)
	if err != nil {
		t.Fatalf("ScaffoldIntervals: %v", err)
	}
	want := []bed.Interval{{"a", 0, 46}, {"a", 50, 96}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("interval %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestWriteRead(t *testing.T) {
	ivs := []bed.Interval{{"chr2", 5, 10}, {"chr1", 0, 100}}
	var buf bytes.Buffer
	if err := bed.Write(&buf, ivs); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "chr2\t5\t10") {
		t.Fatalf("Write produced %q", buf.String())
	}

	back, err := bed.Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(back) != 2 || back[0] != ivs[0] || back[1] != ivs[1] {
		t.Errorf("Read() = %v, want %v", back, ivs)
	}
}

func TestSort(t *testing.T) {
	ivs := []bed.Interval{{"b", 1, 2}, {"a", 9, 10}, {"a", 3, 8}, {"a", 3, 4}}
	bed.Sort(ivs)
	want := []bed.Interval{{"a", 3, 4}, {"a", 3, 8}, {"a", 9, 10}, {"b", 1, 2}}
	for i := range ivs {
		if ivs[i] != want[i] {
			t.Errorf("Sort()[%d] = %v, want %v", i, ivs[i], want[i])
		}
	}
	if (bed.Interval{Start: 3, End: 8}).Len() != 5 {
		t.Error("Len() != 5")
	}
}
