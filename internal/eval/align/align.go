// Package align computes token-level edit scripts between a target word
// sequence and a recognized word sequence.
//
// The algorithm mirrors the classic longest-matching-block diff: it finds
// the longest run of tokens common to both sequences, recurses on the pieces
// to the left and right, and derives the edit script from the resulting
// matching blocks. When multiple minimal alignments exist, the one maximizing
// contiguous equal runs wins. This tie-break is load-bearing for the scorer:
// it determines whether a discrepancy surfaces as one replace opcode or as a
// delete/insert pair, and those are weighted differently.
package align

import "fmt"

// Tag identifies the kind of one edit operation.
type Tag string

const (
	// TagEqual marks a run of tokens identical in both sequences.
	TagEqual Tag = "equal"
	// TagReplace marks a target run recognized as something else.
	TagReplace Tag = "replace"
	// TagDelete marks target tokens absent from the recognition.
	TagDelete Tag = "delete"
	// TagInsert marks recognized tokens absent from the target.
	TagInsert Tag = "insert"
)

// Op is one alignment operation covering the half-open target span [I1, I2)
// and recognized span [J1, J2).
type Op struct {
	Tag Tag
	I1  int
	I2  int
	J1  int
	J2  int
}

func (o Op) String() string {
	return fmt.Sprintf("%s a[%d:%d] b[%d:%d]", o.Tag, o.I1, o.I2, o.J1, o.J2)
}

// block is one maximal common run: a[A:A+Size] == b[B:B+Size].
type block struct {
	A    int
	B    int
	Size int
}

// Diff returns the ordered edit script transforming token sequence a into b.
// The returned opcodes partition both sequences contiguously and exhaustively;
// [Validate] checks that invariant.
func Diff(a, b []string) []Op {
	blocks := matchingBlocks(a, b)

	var ops []Op
	i, j := 0, 0
	for _, m := range blocks {
		var tag Tag
		switch {
		case i < m.A && j < m.B:
			tag = TagReplace
		case i < m.A:
			tag = TagDelete
		case j < m.B:
			tag = TagInsert
		}
		if tag != "" {
			ops = append(ops, Op{Tag: tag, I1: i, I2: m.A, J1: j, J2: m.B})
		}
		i, j = m.A+m.Size, m.B+m.Size
		if m.Size > 0 {
			ops = append(ops, Op{Tag: TagEqual, I1: m.A, I2: i, J1: m.B, J2: j})
		}
	}
	return ops
}

// Validate checks that ops partition a target sequence of length lenA and a
// recognized sequence of length lenB contiguously and exhaustively, and that
// each tag is consistent with its span shape. A violation means the aligner
// itself is broken; callers treat it as a fatal internal-consistency failure.
func Validate(ops []Op, lenA, lenB int) error {
	i, j := 0, 0
	for _, op := range ops {
		if op.I1 != i || op.J1 != j {
			return fmt.Errorf("align: opcode %v does not continue at a[%d] b[%d]", op, i, j)
		}
		if op.I2 < op.I1 || op.J2 < op.J1 {
			return fmt.Errorf("align: opcode %v has a negative span", op)
		}
		switch op.Tag {
		case TagEqual:
			if op.I2-op.I1 != op.J2-op.J1 || op.I2 == op.I1 {
				return fmt.Errorf("align: equal opcode %v has mismatched spans", op)
			}
		case TagReplace:
			if op.I2 == op.I1 || op.J2 == op.J1 {
				return fmt.Errorf("align: replace opcode %v has an empty span", op)
			}
		case TagDelete:
			if op.I2 == op.I1 || op.J2 != op.J1 {
				return fmt.Errorf("align: delete opcode %v has a bad span", op)
			}
		case TagInsert:
			if op.J2 == op.J1 || op.I2 != op.I1 {
				return fmt.Errorf("align: insert opcode %v has a bad span", op)
			}
		default:
			return fmt.Errorf("align: unknown tag %q", op.Tag)
		}
		i, j = op.I2, op.J2
	}
	if i != lenA || j != lenB {
		return fmt.Errorf("align: opcodes cover a[0:%d] b[0:%d], want a[0:%d] b[0:%d]", i, j, lenA, lenB)
	}
	return nil
}

// matchingBlocks returns the maximal common runs of a and b in order, ending
// with a zero-size sentinel at (len(a), len(b)).
func matchingBlocks(a, b []string) []block {
	// b2j indexes each token of b by its positions, so findLongestMatch can
	// scan rows of a without quadratic token comparison.
	b2j := make(map[string][]int, len(b))
	for j, tok := range b {
		b2j[tok] = append(b2j[tok], j)
	}

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}

	var blocks []block
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := findLongestMatch(a, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if m.Size == 0 {
			continue
		}
		blocks = append(blocks, m)
		if s.alo < m.A && s.blo < m.B {
			queue = append(queue, span{s.alo, m.A, s.blo, m.B})
		}
		if m.A+m.Size < s.ahi && m.B+m.Size < s.bhi {
			queue = append(queue, span{m.A + m.Size, s.ahi, m.B + m.Size, s.bhi})
		}
	}

	sortBlocks(blocks)
	return append(blocks, block{A: len(a), B: len(b)})
}

// findLongestMatch locates the longest run common to a[alo:ahi] and
// b[blo:bhi]. Ties resolve to the earliest run in a, then the earliest in b,
// so repeated tokens align left-to-right deterministically.
func findLongestMatch(a []string, b2j map[string][]int, alo, ahi, blo, bhi int) block {
	besti, bestj, bestsize := alo, blo, 0

	// j2len[j] holds the length of the longest common run ending at a[i-1],
	// b[j-1] from the previous row.
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return block{A: besti, B: bestj, Size: bestsize}
}

// sortBlocks orders blocks by target position. Insertion sort keeps the code
// dependency-free; block counts are tiny (sentence-length sequences).
func sortBlocks(blocks []block) {
	for i := 1; i < len(blocks); i++ {
		for j := i; j > 0 && blocks[j].A < blocks[j-1].A; j-- {
			blocks[j], blocks[j-1] = blocks[j-1], blocks[j]
		}
	}
}
