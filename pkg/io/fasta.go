package io

import (
	"io"
	"os"
	"path/filepath"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"github.com/matzehuels/hapaudit/pkg/errors"
)

// FASTALineWidth is the number of bases per line written by [WriteFASTA].
const FASTALineWidth = 80

// ReadFASTA returns the records of r keyed by ID.
func ReadFASTA(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)
	fr := fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNAredundant))
	for {
		s, err := fr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read fasta record %d", len(out)+1)
		}
		l := s.(*linear.Seq)
		if _, dup := out[l.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "duplicate fasta record %q", l.ID)
		}
		out[l.ID] = string(alphabet.LettersToBytes(l.Seq))
	}
}

// LoadFASTA fills sequences that have no inline bases from the document's
// FASTA files. Relative paths are resolved against dir. Sequences already
// carrying bases are left alone; a sequence with no bases and no record is
// an error.
func (d *Document) LoadFASTA(dir string) error {
	return d.fillFASTA(func(p string) (io.ReadCloser, error) {
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		f, err := os.Open(p)
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", p)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", p)
		}
		return f, nil
	})
}

func (d *Document) fillFASTA(open func(name string) (io.ReadCloser, error)) error {
	if len(d.FASTA) == 0 {
		return nil
	}
	records := make(map[string]string)
	for _, name := range d.FASTA {
		rc, err := open(name)
		if err != nil {
			return err
		}
		recs, err := ReadFASTA(rc)
		rc.Close()
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s", name)
		}
		for id, bases := range recs {
			records[id] = bases
		}
	}
	for i := range d.Sequences {
		s := &d.Sequences[i]
		if s.Bases != "" {
			continue
		}
		bases, ok := records[s.Name]
		if !ok {
			return errors.New(errors.ErrCodeNotFound, "no bases for sequence %q in %v", s.Name, d.FASTA)
		}
		s.Bases = bases
	}
	return nil
}

// WriteFASTA writes the bases of every sequence in d as FASTA records, the
// event in each description line.
func WriteFASTA(d *Document, w io.Writer) error {
	fw := fasta.NewWriter(w, FASTALineWidth)
	for _, s := range d.Sequences {
		seq := linear.NewSeq(s.Name, alphabet.BytesToLetters([]byte(s.Bases)), alphabet.DNAredundant)
		seq.Annotation.SetDescription(s.Event)
		if _, err := fw.Write(seq); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write fasta record %s", s.Name)
		}
	}
	return nil
}
