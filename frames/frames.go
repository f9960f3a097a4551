/*package frames describes the sequence of camera placements which make up an
animation. Frames can be read from and written to text files, interpolated
from a handful of keyframes, and plotted.
*/
package frames

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/phil-mansfield/table"

	"github.com/phil-mansfield/unirender/camera"
	"github.com/phil-mansfield/unirender/geom"
)

// Header is the first line of every frame file.
const Header = "# t, posx, posy, posz, dirx, diry, dirz, fov, n, f"

// Columns is the number of columns in a frame file.
const Columns = 10

// Frame is a single camera placement. Dir is the look direction and FOV is
// the full field of view in degrees.
type Frame struct {
	Time      float64
	Pos, Dir  geom.Vec
	FOV       float64
	Near, Far float64
}

// Camera builds the camera for f. up is the up hint.
func (f *Frame) Camera(up geom.Vec) (*camera.Camera, error) {
	return camera.New(f.Pos, f.Dir, up, f.FOV*math.Pi/180, f.Near, f.Far)
}

func (f *Frame) row() [Columns]float64 {
	return [Columns]float64{
		f.Time, f.Pos[0], f.Pos[1], f.Pos[2],
		f.Dir[0], f.Dir[1], f.Dir[2], f.FOV, f.Near, f.Far,
	}
}

func fromRow(row [Columns]float64) Frame {
	return Frame{
		Time: row[0],
		Pos:  geom.Vec{row[1], row[2], row[3]},
		Dir:  geom.Vec{row[4], row[5], row[6]},
		FOV:  row[7], Near: row[8], Far: row[9],
	}
}

// ReadFile reads every frame in a frame file.
func ReadFile(file string) ([]Frame, error) {
	colIdxs := make([]int, Columns)
	for i := range colIdxs {
		colIdxs[i] = i
	}
	cols, err := table.ReadTable(file, colIdxs, nil)
	if err != nil {
		return nil, err
	}

	frs := make([]Frame, len(cols[0]))
	for i := range frs {
		row := [Columns]float64{}
		for k := range row {
			row[k] = cols[k][i]
		}
		frs[i] = fromRow(row)
	}
	return frs, nil
}

// WriteFile writes frames to a frame file, overwriting it if it exists.
func WriteFile(file string, frs []Frame) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := Write(f, frs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write writes frames to w in the frame file format.
func Write(w io.Writer, frs []Frame) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, Header)
	for i := range frs {
		row := frs[i].row()
		for k, x := range row {
			if k > 0 {
				bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "%+E", x)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// HashPrefix returns the first eight hex digits of the SHA-256 hash of file.
// It is used to name the outputs of a frame file.
func HashPrefix(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil))[:8], nil
}
