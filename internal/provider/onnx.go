package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	onnxrt "github.com/yalue/onnxruntime_go"

	apperrors "github.com/joshband/copy-that-sub002/internal/errors"
	"github.com/joshband/copy-that-sub002/internal/logger"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// initONNXRuntime initializes the process-wide onnxruntime environment once.
func initONNXRuntime() error {
	ortInitOnce.Do(func() {
		if lib := os.Getenv("ONNXRUNTIME_LIB"); lib != "" {
			onnxrt.SetSharedLibraryPath(lib)
		}
		if !onnxrt.IsInitialized() {
			ortInitErr = onnxrt.InitializeEnvironment()
		}
	})
	return ortInitErr
}

// onnxHandle wraps one loaded ONNX session. The session is created during
// provider Load and never mutated afterwards; DynamicAdvancedSession supports
// concurrent Run calls from multiple in-flight images.
type onnxHandle struct {
	name    string
	session *onnxrt.DynamicAdvancedSession
}

func (h *onnxHandle) Name() string    { return h.name }
func (h *onnxHandle) Available() bool { return h.session != nil }

func (h *onnxHandle) Run(input Tensor) (Tensor, error) {
	if h.session == nil {
		return Tensor{}, apperrors.NewModelUnavailableError(h.name, nil)
	}

	in, err := onnxrt.NewTensor(onnxrt.NewShape(input.Shape...), input.Data)
	if err != nil {
		return Tensor{}, fmt.Errorf("input tensor: %w", err)
	}
	defer func() {
		if err := in.Destroy(); err != nil {
			logger.WithError(err).Warn("Failed to destroy input tensor")
		}
	}()

	outputs := []onnxrt.Value{nil}
	if err := h.session.Run([]onnxrt.Value{in}, outputs); err != nil {
		return Tensor{}, fmt.Errorf("run %s: %w", h.name, err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				if err := o.Destroy(); err != nil {
					logger.WithError(err).Warn("Failed to destroy output tensor")
				}
			}
		}
	}()

	out, ok := outputs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return Tensor{}, fmt.Errorf("unexpected output type %T from model %s", outputs[0], h.name)
	}

	// Copy out: the backing buffer is destroyed with the tensor
	shape := out.GetShape()
	data := make([]float32, len(out.GetData()))
	copy(data, out.GetData())
	return Tensor{Data: data, Shape: append([]int64(nil), shape...)}, nil
}

// onnxProvider loads ONNX models from a directory, one session per model
// name, mapped as <dir>/<name>.onnx. Missing files produce unavailable
// handles instead of load failures.
type onnxProvider struct {
	dir    string
	device string

	loadOnce sync.Once
	loadErr  error
	handles  map[string]InferenceHandle
}

// NewONNXProvider creates a lazily-initialized provider backed by ONNX
// Runtime sessions. device is a hint ("cpu" or "cuda").
func NewONNXProvider(dir, device string) ModelProvider {
	return &onnxProvider{dir: dir, device: device}
}

// Load initializes the runtime and opens a session per known model. It is
// idempotent; concurrent callers observe the same result.
func (p *onnxProvider) Load() error {
	p.loadOnce.Do(func() {
		p.handles = make(map[string]InferenceHandle)
		if err := initONNXRuntime(); err != nil {
			p.loadErr = fmt.Errorf("init onnx runtime: %w", err)
			return
		}
		for _, name := range []string{ModelDepth, ModelSegment} {
			p.handles[name] = p.open(name)
		}
	})
	return p.loadErr
}

func (p *onnxProvider) open(name string) InferenceHandle {
	path := filepath.Join(p.dir, name+".onnx")
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		logger.WithFields(map[string]interface{}{"model": name, "path": path}).
			Info("Model file not found, stage will be skipped")
		return Unavailable(name)
	}

	inputs, outputs, err := onnxrt.GetInputOutputInfo(path)
	if err != nil || len(inputs) == 0 || len(outputs) == 0 {
		logger.WithError(err).WithField("model", name).Warn("Failed to read model IO info")
		return Unavailable(name)
	}

	opts, err := onnxrt.NewSessionOptions()
	if err != nil {
		logger.WithError(err).WithField("model", name).Warn("Failed to create session options")
		return Unavailable(name)
	}
	defer func() {
		if err := opts.Destroy(); err != nil {
			logger.WithError(err).Warn("Failed to destroy session options")
		}
	}()

	if p.device == "cuda" {
		cuda, err := onnxrt.NewCUDAProviderOptions()
		if err == nil {
			if err := opts.AppendExecutionProviderCUDA(cuda); err != nil {
				logger.WithError(err).WithField("model", name).Warn("CUDA unavailable, using CPU")
			}
			if err := cuda.Destroy(); err != nil {
				logger.WithError(err).Warn("Failed to destroy CUDA options")
			}
		}
	}

	sess, err := onnxrt.NewDynamicAdvancedSession(path,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, opts)
	if err != nil {
		logger.WithError(err).WithField("model", name).Warn("Failed to create session")
		return Unavailable(name)
	}

	logger.WithFields(map[string]interface{}{"model": name, "path": path}).Info("Model loaded")
	return &onnxHandle{name: name, session: sess}
}

func (p *onnxProvider) Get(name string) (InferenceHandle, error) {
	if err := p.Load(); err != nil {
		return Unavailable(name), err
	}
	if h, ok := p.handles[name]; ok {
		return h, nil
	}
	return Unavailable(name), nil
}

func (p *onnxProvider) Manifest() map[string]bool {
	manifest := make(map[string]bool)
	if err := p.Load(); err != nil {
		manifest[ModelDepth] = false
		manifest[ModelSegment] = false
		return manifest
	}
	for name, h := range p.handles {
		manifest[name] = h.Available()
	}
	return manifest
}
