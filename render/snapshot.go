package render

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrEmptyCrop is returned when a box does not overlap the frame.
var ErrEmptyCrop = errors.New("crop is outside the frame")

// Snapshot crops box out of img and shrinks it to fit within maxSize on both
// sides, keeping the aspect ratio. Crops already smaller are not enlarged.
//
// Arguments:
//   - img: The source frame.
//   - box: The detection box in frame pixels; it is clipped to the frame.
//   - maxSize: The longest side of the result in pixels.
//
// Returns:
//   - image.Image: The thumbnail.
//   - error: When the box misses the frame or the crop cannot be converted.
func Snapshot(img gocv.Mat, box image.Rectangle, maxSize uint) (image.Image, error) {
	box = box.Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))
	if box.Empty() {
		return nil, ErrEmptyCrop
	}

	region := img.Region(box)
	defer region.Close()
	crop := region.Clone()
	defer crop.Close()

	out, err := crop.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "convert crop")
	}
	return resize.Thumbnail(maxSize, maxSize, out, resize.Lanczos3), nil
}

// EncodeJPEG encodes a snapshot as JPEG.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, errors.Wrap(err, "encode jpeg")
	}
	return buf.Bytes(), nil
}

// SnapshotPath names the evidence file of one violation.
func SnapshotPath(dir string, frame, objectID int) string {
	return filepath.Join(dir, "frame_"+strconv.Itoa(frame)+"_obj_"+strconv.Itoa(objectID)+".jpg")
}

// WriteSnapshot crops, thumbnails and writes a violation snapshot to path.
func WriteSnapshot(path string, img gocv.Mat, box image.Rectangle, maxSize uint) error {
	thumb, err := Snapshot(img, box, maxSize)
	if err != nil {
		return err
	}
	data, err := EncodeJPEG(thumb)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}
