// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package htsio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFasta writes seq for one contig wrapped at width bases per line,
// plus its faidx companion, and returns the FASTA path.
func writeFasta(t *testing.T, dir, contig, seq string, width int) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString(">" + contig + "\n")
	for i := 0; i < len(seq); i += width {
		end := i + width
		if end > len(seq) {
			end = len(seq)
		}
		sb.WriteString(seq[i:end] + "\n")
	}
	faPath := filepath.Join(dir, "ref.fa")
	require.NoError(t, os.WriteFile(faPath, []byte(sb.String()), 0600))

	offset := len(contig) + 2 // ">" + name + "\n"
	fai := fmt.Sprintf("%s\t%d\t%d\t%d\t%d\n", contig, len(seq), offset, width, width+1)
	require.NoError(t, os.WriteFile(faPath+".fai", []byte(fai), 0600))
	return faPath
}

func TestReferenceFetchAcrossLines(t *testing.T) {
	seq := strings.Repeat("acgt", 50) // 200 bases, lowercase on disk
	faPath := writeFasta(t, t.TempDir(), "chr1", seq, 60)

	ref, err := OpenReference(faPath, "")
	require.NoError(t, err)
	defer ref.(interface{ Close() error }).Close()

	got, err := ref.Fetch("chr1", 58, 124)
	require.NoError(t, err)
	want := strings.ToUpper(seq[58:124])
	assert.Equal(t, want, got, "fetch spanning line breaks should splice out newlines")

	n, err := ref.Length("chr1")
	require.NoError(t, err)
	assert.Equal(t, 200, n)
}

func TestReferenceFetchBounds(t *testing.T) {
	faPath := writeFasta(t, t.TempDir(), "chr1", strings.Repeat("A", 100), 60)
	ref, err := OpenReference(faPath, "")
	require.NoError(t, err)
	defer ref.(interface{ Close() error }).Close()

	_, err = ref.Fetch("chr1", -1, 10)
	assert.Error(t, err)
	_, err = ref.Fetch("chr1", 90, 101)
	assert.Error(t, err)
	_, err = ref.Fetch("chr2", 0, 10)
	assert.Error(t, err)
}

func TestParseFaiRejectsMalformedLines(t *testing.T) {
	_, err := parseFai(strings.NewReader("chr1\t100\t6\n"))
	assert.Error(t, err, "too few fields")
	_, err = parseFai(strings.NewReader("chr1\tx\t6\t60\t61\n"))
	assert.Error(t, err, "non-numeric length")
	_, err = parseFai(strings.NewReader("chr1\t100\t6\t60\t59\n"))
	assert.Error(t, err, "bytes-per-line below bases-per-line")
}
