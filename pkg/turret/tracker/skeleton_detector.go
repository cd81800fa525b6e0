package tracker

import (
	"fmt"
	"image"

	tflite "github.com/mattn/go-tflite"
	"gocv.io/x/gocv"
)

// SkeletonDetector turns one depth frame into the per-user skeletons that
// feed OnFrame. An embedded pose model is one implementation; a
// pass-through from an external tracker SDK (already giving
// (id, com_cartesian_mm) tuples) is another, and is generally preferred
// when the camera vendor provides its own skeleton tracker — see the
// design notes on why this is kept as a narrow interface rather than a
// concrete dependency.
type SkeletonDetector interface {
	Detect(depth gocv.Mat) ([]Skeleton, error)
	Close() error
}

// TFLiteSkeletonDetector runs a single-shot pose model over the depth
// frame and takes each detected person's center-of-mass estimate in
// millimetres straight from the model's output. It expects the output
// tensor to be laid out as one row per detected person:
// [id, score, x_mm, y_mm, z_mm], and discards rows below ScoreThreshold.
type TFLiteSkeletonDetector struct {
	model       *tflite.Model
	interpreter *tflite.Interpreter
	options     *tflite.InterpreterOptions

	inputW, inputH int
	ScoreThreshold float32
}

// NewTFLiteSkeletonDetector loads modelData into a TFLite interpreter
// sized for an inputW x inputH x 3 input tensor.
func NewTFLiteSkeletonDetector(modelData []byte, inputW, inputH int, numThreads int) (*TFLiteSkeletonDetector, error) {
	if len(modelData) == 0 {
		return nil, fmt.Errorf("tracker: empty skeleton model data")
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return nil, fmt.Errorf("tracker: failed to parse skeleton model")
	}

	options := tflite.NewInterpreterOptions()
	if options == nil {
		model.Delete()
		return nil, fmt.Errorf("tracker: failed to create interpreter options")
	}
	options.SetNumThread(numThreads)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		options.Delete()
		model.Delete()
		return nil, fmt.Errorf("tracker: failed to create interpreter")
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		options.Delete()
		model.Delete()
		return nil, fmt.Errorf("tracker: allocate tensors: status %d", status)
	}

	return &TFLiteSkeletonDetector{
		model:          model,
		interpreter:    interpreter,
		options:        options,
		inputW:         inputW,
		inputH:         inputH,
		ScoreThreshold: 0.5,
	}, nil
}

// Detect runs one inference pass over depth and extracts skeleton COMs.
func (d *TFLiteSkeletonDetector) Detect(depth gocv.Mat) ([]Skeleton, error) {
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(depth, &resized, image.Pt(d.inputW, d.inputH), 0, 0, gocv.InterpolationLinear)

	input := d.interpreter.GetInputTensor(0)
	if input == nil {
		return nil, fmt.Errorf("tracker: model has no input tensor")
	}
	copy(input.Float32s(), matToFloat32(resized))

	if status := d.interpreter.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("tracker: inference failed: status %d", status)
	}

	output := d.interpreter.GetOutputTensor(0)
	if output == nil {
		return nil, fmt.Errorf("tracker: model has no output tensor")
	}
	values := output.Float32s()

	const cols = 5 // id, score, x_mm, y_mm, z_mm
	n := len(values) / cols
	out := make([]Skeleton, 0, n)
	for i := 0; i < n; i++ {
		row := values[i*cols : i*cols+cols]
		score := row[1]
		if score < d.ScoreThreshold {
			continue
		}
		out = append(out, Skeleton{
			ID:   fmt.Sprintf("%d", int(row[0])),
			X:    row[2],
			Y:    row[3],
			RawZ: row[4],
		})
	}
	return out, nil
}

func (d *TFLiteSkeletonDetector) Close() error {
	d.interpreter.Delete()
	d.options.Delete()
	d.model.Delete()
	return nil
}

func matToFloat32(m gocv.Mat) []float32 {
	out := make([]float32, m.Total()*m.Channels())
	data, _ := m.DataPtrFloat32()
	copy(out, data)
	return out
}
