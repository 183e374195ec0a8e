package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot() Snapshot {
	return Snapshot{
		CustomerName: "Jane Doe",
		Lines: []Line{
			{Reference: "REF-1", Name: "Widget", Quantity: 2, PurchaseCents: 500, SaleCents: 1000, LineTotalCents: 2000},
			{Reference: "REF-2", Name: "Gadget", Quantity: 3, PurchaseCents: 200, SaleCents: 500, LineTotalCents: 1500},
		},
		TotalCents: 3500,
	}
}

func TestWriteFormat(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir}
	require.NoError(t, w.Write(snapshot()))

	b, err := os.ReadFile(filepath.Join(dir, "Jane Doe.txt"))
	require.NoError(t, err)
	assert.Equal(t,
		"Jane Doe\n"+
			"REF-1$Widget$2$5.00$10.00$20.00$35.00#\n"+
			"REF-2$Gadget$3$2.00$5.00$15.00$35.00#\n",
		string(b))
}

func TestWriteOverwritesPreviousFile(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir}
	require.NoError(t, w.Write(snapshot()))

	snap := snapshot()
	snap.Lines = snap.Lines[:1]
	snap.TotalCents = 2000
	require.NoError(t, w.Write(snap))

	b, err := os.ReadFile(filepath.Join(dir, "Jane Doe.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nREF-1$Widget$2$5.00$10.00$20.00$20.00#\n", string(b))
}

func TestWriteEmptyOrder(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir}
	require.NoError(t, w.Write(Snapshot{CustomerName: "Empty"}))

	b, err := os.ReadFile(filepath.Join(dir, "Empty.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Empty\n", string(b))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "A_B_C_D_E_F_G_H_I", SanitizeFilename(`A\B/C*D?E:F"G<H>I`))
	assert.Equal(t, "Jane Doe", SanitizeFilename("Jane Doe"))
}

func TestWriteCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "exports")
	w := &Writer{Dir: dir}
	require.NoError(t, w.Write(Snapshot{CustomerName: "X"}))
	_, err := os.Stat(filepath.Join(dir, "X.txt"))
	assert.NoError(t, err)
}
