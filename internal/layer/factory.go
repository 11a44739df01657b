package layer

import (
	"fmt"
	"log/slog"

	"github.com/born-ml/strata/internal/backend/webgpu"
)

// acceleratedLRNMaxRegion is the largest across-channel neighborhood the
// accelerated LRN kernel handles. Larger regions fall back to the generic
// implementation.
const acceleratedLRNMaxRegion = 16

// resolveSimpleEngine is the shared resolution rule for operators whose
// accelerated implementation is always feasible: DEFAULT prefers the
// accelerated engine when it is available, an explicit engine is honored,
// and an explicit ACCELERATED request without the backend is fatal.
func resolveSimpleEngine(layerName string, e Engine, accelerated bool) (Engine, error) {
	switch e {
	case EngineDefault:
		if accelerated {
			return EngineAccelerated, nil
		}
		return EngineGeneric, nil
	case EngineGeneric:
		return EngineGeneric, nil
	case EngineAccelerated:
		if !accelerated {
			return 0, configErrorf(layerName, "accelerated engine requested but the webgpu backend is unavailable")
		}
		return EngineAccelerated, nil
	default:
		return 0, configErrorf(layerName, "has unknown engine %s", e)
	}
}

// resolveConvolutionEngine applies the convolution rule: the accelerated
// kernel cannot express dilation, so DEFAULT never resolves to it for a
// dilated layer, and explicitly requesting it for one is fatal.
func resolveConvolutionEngine(layerName string, e Engine, dilated, accelerated bool) (Engine, error) {
	switch e {
	case EngineDefault:
		if accelerated && !dilated {
			return EngineAccelerated, nil
		}
		return EngineGeneric, nil
	case EngineGeneric:
		return EngineGeneric, nil
	case EngineAccelerated:
		if !accelerated {
			return 0, configErrorf(layerName, "accelerated engine requested but the webgpu backend is unavailable")
		}
		if dilated {
			return 0, configErrorf(layerName, "accelerated convolution does not support dilation")
		}
		return EngineAccelerated, nil
	default:
		return 0, configErrorf(layerName, "has unknown engine %s", e)
	}
}

// resolvePoolingEngine applies the pooling rule. DEFAULT resolves to the
// accelerated engine whenever it is available; feasibility is only checked
// afterwards, substituting the generic layer for the known gaps. A non-empty
// notice explains a substitution worth logging.
func resolvePoolingEngine(layerName string, e Engine, method PoolMethod, numTops int, accelerated bool) (Engine, string, error) {
	switch e {
	case EngineDefault:
		if accelerated {
			e = EngineAccelerated
		} else {
			e = EngineGeneric
		}
	case EngineGeneric:
	case EngineAccelerated:
		if !accelerated {
			return 0, "", configErrorf(layerName, "accelerated engine requested but the webgpu backend is unavailable")
		}
	default:
		return 0, "", configErrorf(layerName, "has unknown engine %s", e)
	}
	if e == EngineGeneric {
		return EngineGeneric, "", nil
	}
	if numTops > 1 {
		return EngineGeneric, "accelerated pooling does not support multiple top blobs", nil
	}
	// The accelerated kernel does not track max indices, which breaks
	// in-place updates after max pooling. Always use the generic layer.
	if method == "" || method == PoolMax {
		return EngineGeneric, "", nil
	}
	return EngineAccelerated, "", nil
}

// lrnImpl is the concrete implementation choice for LRN.
type lrnImpl int

const (
	lrnGeneric lrnImpl = iota
	lrnAccelerated
	lrnAcceleratedWithinChannel
)

// resolveLRNImpl applies the LRN rule. The within-channel region is handled
// by a dedicated accelerated variant; the across-channel kernel has a hard
// neighborhood-size limit beyond which the generic layer is substituted.
func resolveLRNImpl(layerName string, e Engine, region NormRegion, localSize int, accelerated bool) (lrnImpl, string, error) {
	switch e {
	case EngineDefault:
		if accelerated {
			e = EngineAccelerated
		} else {
			e = EngineGeneric
		}
	case EngineGeneric:
	case EngineAccelerated:
		if !accelerated {
			return 0, "", configErrorf(layerName, "accelerated engine requested but the webgpu backend is unavailable")
		}
	default:
		return 0, "", configErrorf(layerName, "has unknown engine %s", e)
	}
	if e == EngineGeneric {
		return lrnGeneric, "", nil
	}
	if region == NormWithinChannel {
		return lrnAcceleratedWithinChannel, "", nil
	}
	if localSize > acceleratedLRNMaxRegion {
		notice := fmt.Sprintf("local_size %d exceeds the accelerated limit of %d", localSize, acceleratedLRNMaxRegion)
		return lrnGeneric, notice, nil
	}
	return lrnAccelerated, "", nil
}

// logFallback records a silent engine degradation. Observational only.
func logFallback(layerName, layerType, reason string) {
	slog.Info("using generic implementation",
		"layer", layerName,
		"type", layerType,
		"reason", reason)
}

// acceleratedContext obtains the shared webgpu context after resolution has
// chosen the accelerated engine. Resolution only picks it when Available()
// holds, so failure here indicates the device was lost since the probe.
func acceleratedContext(layerName string) (*webgpu.Context, error) {
	ctx, err := webgpu.Default()
	if err != nil {
		return nil, configErrorf(layerName, "webgpu context: %v", err)
	}
	return ctx, nil
}

func newConvolutionLayer(spec *Spec) (Layer, error) {
	params := spec.Convolution
	if params == nil {
		return nil, configErrorf(spec.Name, "missing convolution parameters")
	}
	engine, err := resolveConvolutionEngine(spec.Name, params.Engine, params.HasDilation(), webgpu.Available())
	if err != nil {
		return nil, err
	}
	if engine == EngineAccelerated {
		ctx, err := acceleratedContext(spec.Name)
		if err != nil {
			return nil, err
		}
		return newWebGPUConvolution(spec, ctx), nil
	}
	return newConvolution(spec), nil
}

func newPoolingLayer(spec *Spec) (Layer, error) {
	params := spec.Pooling
	if params == nil {
		return nil, configErrorf(spec.Name, "missing pooling parameters")
	}
	engine, notice, err := resolvePoolingEngine(spec.Name, params.Engine, params.Method, len(spec.Tops), webgpu.Available())
	if err != nil {
		return nil, err
	}
	if notice != "" {
		logFallback(spec.Name, spec.Type, notice)
	}
	if engine == EngineAccelerated {
		ctx, err := acceleratedContext(spec.Name)
		if err != nil {
			return nil, err
		}
		return newWebGPUPooling(spec, ctx), nil
	}
	return newPooling(spec), nil
}

func newLRNLayer(spec *Spec) (Layer, error) {
	params := spec.LRN
	if params == nil {
		params = &LRNSpec{}
	}
	impl, notice, err := resolveLRNImpl(spec.Name, params.Engine, params.EffectiveRegion(), params.EffectiveLocalSize(), webgpu.Available())
	if err != nil {
		return nil, err
	}
	if notice != "" {
		logFallback(spec.Name, spec.Type, notice)
	}
	switch impl {
	case lrnAccelerated, lrnAcceleratedWithinChannel:
		ctx, err := acceleratedContext(spec.Name)
		if err != nil {
			return nil, err
		}
		return newWebGPULRN(spec, params, ctx), nil
	default:
		return newLRN(spec, params), nil
	}
}

func newReLULayer(spec *Spec) (Layer, error) {
	params := spec.ReLU
	if params == nil {
		params = &ReLUSpec{}
	}
	engine, err := resolveSimpleEngine(spec.Name, params.Engine, webgpu.Available())
	if err != nil {
		return nil, err
	}
	if engine == EngineAccelerated {
		ctx, err := acceleratedContext(spec.Name)
		if err != nil {
			return nil, err
		}
		return newWebGPUReLU(spec, params, ctx), nil
	}
	return newReLU(spec, params), nil
}

func newSigmoidLayer(spec *Spec) (Layer, error) {
	var engine Engine
	if spec.Sigmoid != nil {
		engine = spec.Sigmoid.Engine
	}
	resolved, err := resolveSimpleEngine(spec.Name, engine, webgpu.Available())
	if err != nil {
		return nil, err
	}
	if resolved == EngineAccelerated {
		ctx, err := acceleratedContext(spec.Name)
		if err != nil {
			return nil, err
		}
		return newWebGPUSigmoid(spec, ctx), nil
	}
	return newSigmoid(spec), nil
}

func newTanHLayer(spec *Spec) (Layer, error) {
	var engine Engine
	if spec.TanH != nil {
		engine = spec.TanH.Engine
	}
	resolved, err := resolveSimpleEngine(spec.Name, engine, webgpu.Available())
	if err != nil {
		return nil, err
	}
	if resolved == EngineAccelerated {
		ctx, err := acceleratedContext(spec.Name)
		if err != nil {
			return nil, err
		}
		return newWebGPUTanH(spec, ctx), nil
	}
	return newTanH(spec), nil
}

func newSoftmaxLayer(spec *Spec) (Layer, error) {
	params := spec.Softmax
	if params == nil {
		params = &SoftmaxSpec{}
	}
	engine, err := resolveSimpleEngine(spec.Name, params.Engine, webgpu.Available())
	if err != nil {
		return nil, err
	}
	if engine == EngineAccelerated {
		ctx, err := acceleratedContext(spec.Name)
		if err != nil {
			return nil, err
		}
		return newWebGPUSoftmax(spec, params, ctx), nil
	}
	return newSoftmax(spec, params), nil
}

func newSliceLayer(spec *Spec) (Layer, error) {
	params := spec.Slice
	if params == nil {
		params = &SliceSpec{}
	}
	engine, err := resolveSimpleEngine(spec.Name, params.Engine, webgpu.Available())
	if err != nil {
		return nil, err
	}
	if engine == EngineAccelerated {
		ctx, err := acceleratedContext(spec.Name)
		if err != nil {
			return nil, err
		}
		return newWebGPUSlice(spec, params, ctx), nil
	}
	return newSlice(spec, params), nil
}

// registerBuiltins registers the built-in operator kinds. Called exactly once
// while the default registry is constructed.
func registerBuiltins(r *Registry) {
	r.Register("Convolution", newConvolutionLayer)
	r.Register("Pooling", newPoolingLayer)
	r.Register("LRN", newLRNLayer)
	r.Register("ReLU", newReLULayer)
	r.Register("Sigmoid", newSigmoidLayer)
	r.Register("TanH", newTanHLayer)
	r.Register("Softmax", newSoftmaxLayer)
	r.Register("Slice", newSliceLayer)
}
