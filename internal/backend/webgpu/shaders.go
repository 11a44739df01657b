//go:build windows

package webgpu

// WGSL compute shaders for the layer kernels.
// Using string constants instead of embed for simplicity.

// workgroupSize is the default number of threads per workgroup.
const workgroupSize = 256

// reluForwardShader computes y = max(0, x) + negative_slope * min(0, x).
const reluForwardShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> y: array<f32>;

struct Params {
    size: u32,
    negative_slope: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        let v = x[idx];
        y[idx] = max(v, 0.0) + params.negative_slope * min(v, 0.0);
    }
}
`

// reluBackwardShader routes the top gradient by the sign of the input.
const reluBackwardShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read> dy: array<f32>;
@group(0) @binding(2) var<storage, read_write> dx: array<f32>;

struct Params {
    size: u32,
    negative_slope: f32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        if (x[idx] > 0.0) {
            dx[idx] = dy[idx];
        } else {
            dx[idx] = dy[idx] * params.negative_slope;
        }
    }
}
`

// sigmoidForwardShader computes y = 1 / (1 + exp(-x)).
const sigmoidForwardShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> y: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        y[idx] = 1.0 / (1.0 + exp(-x[idx]));
    }
}
`

// sigmoidBackwardShader computes dx = dy * y * (1 - y) from the cached output.
const sigmoidBackwardShader = `
@group(0) @binding(0) var<storage, read> y: array<f32>;
@group(0) @binding(1) var<storage, read> dy: array<f32>;
@group(0) @binding(2) var<storage, read_write> dx: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        let s = y[idx];
        dx[idx] = dy[idx] * s * (1.0 - s);
    }
}
`

// tanhForwardShader computes y = tanh(x).
const tanhForwardShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> y: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        y[idx] = tanh(x[idx]);
    }
}
`

// tanhBackwardShader computes dx = dy * (1 - y*y) from the cached output.
const tanhBackwardShader = `
@group(0) @binding(0) var<storage, read> y: array<f32>;
@group(0) @binding(1) var<storage, read> dy: array<f32>;
@group(0) @binding(2) var<storage, read_write> dx: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        let t = y[idx];
        dx[idx] = dy[idx] * (1.0 - t * t);
    }
}
`

// softmaxForwardShader normalizes one channel column per invocation.
// Columns are strided by inner within each outer group.
const softmaxForwardShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> y: array<f32>;

struct Params {
    outer: u32,
    channels: u32,
    inner: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let columns = params.outer * params.inner;
    if (idx >= columns) {
        return;
    }

    let o = idx / params.inner;
    let i = idx % params.inner;
    let base = o * params.channels * params.inner + i;

    var max_val = x[base];
    for (var c: u32 = 1u; c < params.channels; c = c + 1u) {
        max_val = max(max_val, x[base + c * params.inner]);
    }

    var sum: f32 = 0.0;
    for (var c: u32 = 0u; c < params.channels; c = c + 1u) {
        let e = exp(x[base + c * params.inner] - max_val);
        y[base + c * params.inner] = e;
        sum = sum + e;
    }

    for (var c: u32 = 0u; c < params.channels; c = c + 1u) {
        y[base + c * params.inner] = y[base + c * params.inner] / sum;
    }
}
`

// softmaxBackwardShader computes dx = (dy - dot(dy, y)) * y per column.
const softmaxBackwardShader = `
@group(0) @binding(0) var<storage, read> y: array<f32>;
@group(0) @binding(1) var<storage, read> dy: array<f32>;
@group(0) @binding(2) var<storage, read_write> dx: array<f32>;

struct Params {
    outer: u32,
    channels: u32,
    inner: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let columns = params.outer * params.inner;
    if (idx >= columns) {
        return;
    }

    let o = idx / params.inner;
    let i = idx % params.inner;
    let base = o * params.channels * params.inner + i;

    var dot: f32 = 0.0;
    for (var c: u32 = 0u; c < params.channels; c = c + 1u) {
        let j = base + c * params.inner;
        dot = dot + dy[j] * y[j];
    }

    for (var c: u32 = 0u; c < params.channels; c = c + 1u) {
        let j = base + c * params.inner;
        dx[j] = (dy[j] - dot) * y[j];
    }
}
`

// convForwardShader computes one output element per invocation:
// y[n,co,oh,ow] = bias[co] + sum over ci,kh,kw of x * w.
const convForwardShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read> w: array<f32>;
@group(0) @binding(2) var<storage, read> bias: array<f32>;
@group(0) @binding(3) var<storage, read_write> y: array<f32>;

struct Params {
    batch: u32,
    in_channels: u32,
    in_h: u32,
    in_w: u32,
    out_channels: u32,
    kernel_h: u32,
    kernel_w: u32,
    stride_h: u32,
    stride_w: u32,
    pad_h: u32,
    pad_w: u32,
    out_h: u32,
    out_w: u32,
    has_bias: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let total = params.batch * params.out_channels * params.out_h * params.out_w;
    if (idx >= total) {
        return;
    }

    let ow = idx % params.out_w;
    let oh = (idx / params.out_w) % params.out_h;
    let co = (idx / (params.out_w * params.out_h)) % params.out_channels;
    let n = idx / (params.out_w * params.out_h * params.out_channels);

    var sum: f32 = 0.0;
    if (params.has_bias != 0u) {
        sum = bias[co];
    }

    for (var ci: u32 = 0u; ci < params.in_channels; ci = ci + 1u) {
        for (var kh: u32 = 0u; kh < params.kernel_h; kh = kh + 1u) {
            let ih = i32(oh * params.stride_h + kh) - i32(params.pad_h);
            if (ih < 0 || ih >= i32(params.in_h)) {
                continue;
            }
            for (var kw: u32 = 0u; kw < params.kernel_w; kw = kw + 1u) {
                let iw = i32(ow * params.stride_w + kw) - i32(params.pad_w);
                if (iw < 0 || iw >= i32(params.in_w)) {
                    continue;
                }
                let x_idx = ((n * params.in_channels + ci) * params.in_h + u32(ih)) * params.in_w + u32(iw);
                let w_idx = ((co * params.in_channels + ci) * params.kernel_h + kh) * params.kernel_w + kw;
                sum = sum + x[x_idx] * w[w_idx];
            }
        }
    }

    y[idx] = sum;
}
`

// convBackwardBiasShader reduces the top gradient over batch and space,
// one output channel per invocation.
const convBackwardBiasShader = `
@group(0) @binding(0) var<storage, read> dy: array<f32>;
@group(0) @binding(1) var<storage, read_write> db: array<f32>;

struct Params {
    batch: u32,
    out_channels: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let co = global_id.x;
    if (co >= params.out_channels) {
        return;
    }

    let area = params.out_h * params.out_w;
    var sum: f32 = 0.0;
    for (var n: u32 = 0u; n < params.batch; n = n + 1u) {
        let base = (n * params.out_channels + co) * area;
        for (var s: u32 = 0u; s < area; s = s + 1u) {
            sum = sum + dy[base + s];
        }
    }
    db[co] = sum;
}
`

// convBackwardWeightShader computes one weight gradient element per
// invocation by gathering over batch and output positions.
const convBackwardWeightShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read> dy: array<f32>;
@group(0) @binding(2) var<storage, read_write> dw: array<f32>;

struct Params {
    batch: u32,
    in_channels: u32,
    in_h: u32,
    in_w: u32,
    out_channels: u32,
    kernel_h: u32,
    kernel_w: u32,
    stride_h: u32,
    stride_w: u32,
    pad_h: u32,
    pad_w: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let total = params.out_channels * params.in_channels * params.kernel_h * params.kernel_w;
    if (idx >= total) {
        return;
    }

    let kw = idx % params.kernel_w;
    let kh = (idx / params.kernel_w) % params.kernel_h;
    let ci = (idx / (params.kernel_w * params.kernel_h)) % params.in_channels;
    let co = idx / (params.kernel_w * params.kernel_h * params.in_channels);

    var sum: f32 = 0.0;
    for (var n: u32 = 0u; n < params.batch; n = n + 1u) {
        for (var oh: u32 = 0u; oh < params.out_h; oh = oh + 1u) {
            let ih = i32(oh * params.stride_h + kh) - i32(params.pad_h);
            if (ih < 0 || ih >= i32(params.in_h)) {
                continue;
            }
            for (var ow: u32 = 0u; ow < params.out_w; ow = ow + 1u) {
                let iw = i32(ow * params.stride_w + kw) - i32(params.pad_w);
                if (iw < 0 || iw >= i32(params.in_w)) {
                    continue;
                }
                let x_idx = ((n * params.in_channels + ci) * params.in_h + u32(ih)) * params.in_w + u32(iw);
                let dy_idx = ((n * params.out_channels + co) * params.out_h + oh) * params.out_w + ow;
                sum = sum + x[x_idx] * dy[dy_idx];
            }
        }
    }
    dw[idx] = sum;
}
`

// convBackwardInputShader computes one input gradient element per
// invocation by gathering the output positions whose window covers it.
const convBackwardInputShader = `
@group(0) @binding(0) var<storage, read> w: array<f32>;
@group(0) @binding(1) var<storage, read> dy: array<f32>;
@group(0) @binding(2) var<storage, read_write> dx: array<f32>;

struct Params {
    batch: u32,
    in_channels: u32,
    in_h: u32,
    in_w: u32,
    out_channels: u32,
    kernel_h: u32,
    kernel_w: u32,
    stride_h: u32,
    stride_w: u32,
    pad_h: u32,
    pad_w: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let total = params.batch * params.in_channels * params.in_h * params.in_w;
    if (idx >= total) {
        return;
    }

    let iw = idx % params.in_w;
    let ih = (idx / params.in_w) % params.in_h;
    let ci = (idx / (params.in_w * params.in_h)) % params.in_channels;
    let n = idx / (params.in_w * params.in_h * params.in_channels);

    var sum: f32 = 0.0;
    for (var co: u32 = 0u; co < params.out_channels; co = co + 1u) {
        for (var kh: u32 = 0u; kh < params.kernel_h; kh = kh + 1u) {
            let oh_num = i32(ih + params.pad_h) - i32(kh);
            if (oh_num < 0 || oh_num % i32(params.stride_h) != 0) {
                continue;
            }
            let oh = u32(oh_num) / params.stride_h;
            if (oh >= params.out_h) {
                continue;
            }
            for (var kw: u32 = 0u; kw < params.kernel_w; kw = kw + 1u) {
                let ow_num = i32(iw + params.pad_w) - i32(kw);
                if (ow_num < 0 || ow_num % i32(params.stride_w) != 0) {
                    continue;
                }
                let ow = u32(ow_num) / params.stride_w;
                if (ow >= params.out_w) {
                    continue;
                }
                let w_idx = ((co * params.in_channels + ci) * params.kernel_h + kh) * params.kernel_w + kw;
                let dy_idx = ((n * params.out_channels + co) * params.out_h + oh) * params.out_w + ow;
                sum = sum + w[w_idx] * dy[dy_idx];
            }
        }
    }
    dx[idx] = sum;
}
`

// avePoolForwardShader averages one pooling window per invocation. The
// divisor is the unclipped window size, matching the CPU layer.
const avePoolForwardShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> y: array<f32>;

struct Params {
    batch: u32,
    channels: u32,
    in_h: u32,
    in_w: u32,
    kernel_h: u32,
    kernel_w: u32,
    stride_h: u32,
    stride_w: u32,
    pad_h: u32,
    pad_w: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let total = params.batch * params.channels * params.out_h * params.out_w;
    if (idx >= total) {
        return;
    }

    let ow = idx % params.out_w;
    let oh = (idx / params.out_w) % params.out_h;
    let c = (idx / (params.out_w * params.out_h)) % params.channels;
    let n = idx / (params.out_w * params.out_h * params.channels);

    let h_start = i32(oh * params.stride_h) - i32(params.pad_h);
    let w_start = i32(ow * params.stride_w) - i32(params.pad_w);
    let h_end = min(h_start + i32(params.kernel_h), i32(params.in_h) + i32(params.pad_h));
    let w_end = min(w_start + i32(params.kernel_w), i32(params.in_w) + i32(params.pad_w));
    let pool_size = (h_end - h_start) * (w_end - w_start);

    let h0 = max(h_start, 0);
    let w0 = max(w_start, 0);
    let h1 = min(h_end, i32(params.in_h));
    let w1 = min(w_end, i32(params.in_w));

    let base = (n * params.channels + c) * params.in_h * params.in_w;
    var sum: f32 = 0.0;
    for (var ih: i32 = h0; ih < h1; ih = ih + 1) {
        for (var iw: i32 = w0; iw < w1; iw = iw + 1) {
            sum = sum + x[base + u32(ih) * params.in_w + u32(iw)];
        }
    }
    y[idx] = sum / f32(pool_size);
}
`

// avePoolBackwardShader gathers, for one input element, the gradient share
// of every window covering it.
const avePoolBackwardShader = `
@group(0) @binding(0) var<storage, read> dy: array<f32>;
@group(0) @binding(1) var<storage, read_write> dx: array<f32>;

struct Params {
    batch: u32,
    channels: u32,
    in_h: u32,
    in_w: u32,
    kernel_h: u32,
    kernel_w: u32,
    stride_h: u32,
    stride_w: u32,
    pad_h: u32,
    pad_w: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let total = params.batch * params.channels * params.in_h * params.in_w;
    if (idx >= total) {
        return;
    }

    let iw = i32(idx % params.in_w);
    let ih = i32((idx / params.in_w) % params.in_h);
    let c = (idx / (params.in_w * params.in_h)) % params.channels;
    let n = idx / (params.in_w * params.in_h * params.channels);

    var sum: f32 = 0.0;
    for (var oh: u32 = 0u; oh < params.out_h; oh = oh + 1u) {
        let h_start = i32(oh * params.stride_h) - i32(params.pad_h);
        let h_end = min(h_start + i32(params.kernel_h), i32(params.in_h) + i32(params.pad_h));
        if (ih < h_start || ih >= min(h_end, i32(params.in_h))) {
            continue;
        }
        for (var ow: u32 = 0u; ow < params.out_w; ow = ow + 1u) {
            let w_start = i32(ow * params.stride_w) - i32(params.pad_w);
            let w_end = min(w_start + i32(params.kernel_w), i32(params.in_w) + i32(params.pad_w));
            if (iw < w_start || iw >= min(w_end, i32(params.in_w))) {
                continue;
            }
            let pool_size = (h_end - h_start) * (w_end - w_start);
            let dy_idx = ((n * params.channels + c) * params.out_h + oh) * params.out_w + ow;
            sum = sum + dy[dy_idx] / f32(pool_size);
        }
    }
    dx[idx] = sum;
}
`

// lrnForwardShader computes the normalization scale and output for one
// element per invocation. within_channel selects a spatial neighborhood
// instead of the channel window; the window size enters the alpha divisor.
const lrnForwardShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> y: array<f32>;
@group(0) @binding(2) var<storage, read_write> scale: array<f32>;

struct Params {
    batch: u32,
    channels: u32,
    height: u32,
    width: u32,
    local_size: u32,
    alpha: f32,
    beta: f32,
    k: f32,
    within_channel: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let total = params.batch * params.channels * params.height * params.width;
    if (idx >= total) {
        return;
    }

    let w = i32(idx % params.width);
    let h = i32((idx / params.width) % params.height);
    let c = i32((idx / (params.width * params.height)) % params.channels);
    let n = idx / (params.width * params.height * params.channels);

    let half = i32(params.local_size / 2u);
    var sum_sq: f32 = 0.0;
    var window: f32 = f32(params.local_size);

    if (params.within_channel != 0u) {
        window = f32(params.local_size * params.local_size);
        let base = (n * params.channels + u32(c)) * params.height * params.width;
        for (var dh: i32 = -half; dh <= half; dh = dh + 1) {
            let hh = h + dh;
            if (hh < 0 || hh >= i32(params.height)) {
                continue;
            }
            for (var dw: i32 = -half; dw <= half; dw = dw + 1) {
                let ww = w + dw;
                if (ww < 0 || ww >= i32(params.width)) {
                    continue;
                }
                let v = x[base + u32(hh) * params.width + u32(ww)];
                sum_sq = sum_sq + v * v;
            }
        }
    } else {
        let plane = params.height * params.width;
        let base = n * params.channels * plane + u32(h) * params.width + u32(w);
        for (var dc: i32 = -half; dc <= half; dc = dc + 1) {
            let cc = c + dc;
            if (cc < 0 || cc >= i32(params.channels)) {
                continue;
            }
            let v = x[base + u32(cc) * plane];
            sum_sq = sum_sq + v * v;
        }
    }

    let s = params.k + (params.alpha / window) * sum_sq;
    scale[idx] = s;
    y[idx] = x[idx] * pow(s, -params.beta);
}
`

// lrnBackwardShader gathers the normalization gradient for one element.
// The neighborhood is symmetric, so the scatter on the CPU side and this
// gather visit the same index pairs.
const lrnBackwardShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read> scale: array<f32>;
@group(0) @binding(2) var<storage, read> dy: array<f32>;
@group(0) @binding(3) var<storage, read_write> dx: array<f32>;

struct Params {
    batch: u32,
    channels: u32,
    height: u32,
    width: u32,
    local_size: u32,
    alpha: f32,
    beta: f32,
    k: f32,
    within_channel: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let total = params.batch * params.channels * params.height * params.width;
    if (idx >= total) {
        return;
    }

    let w = i32(idx % params.width);
    let h = i32((idx / params.width) % params.height);
    let c = i32((idx / (params.width * params.height)) % params.channels);
    let n = idx / (params.width * params.height * params.channels);

    let half = i32(params.local_size / 2u);
    var window: f32 = f32(params.local_size);
    var accum: f32 = 0.0;

    if (params.within_channel != 0u) {
        window = f32(params.local_size * params.local_size);
        let base = (n * params.channels + u32(c)) * params.height * params.width;
        for (var dh: i32 = -half; dh <= half; dh = dh + 1) {
            let hh = h + dh;
            if (hh < 0 || hh >= i32(params.height)) {
                continue;
            }
            for (var dw: i32 = -half; dw <= half; dw = dw + 1) {
                let ww = w + dw;
                if (ww < 0 || ww >= i32(params.width)) {
                    continue;
                }
                let j = base + u32(hh) * params.width + u32(ww);
                accum = accum + dy[j] * x[j] * pow(scale[j], -params.beta) / scale[j];
            }
        }
    } else {
        let plane = params.height * params.width;
        let base = n * params.channels * plane + u32(h) * params.width + u32(w);
        for (var dc: i32 = -half; dc <= half; dc = dc + 1) {
            let cc = c + dc;
            if (cc < 0 || cc >= i32(params.channels)) {
                continue;
            }
            let j = base + u32(cc) * plane;
            accum = accum + dy[j] * x[j] * pow(scale[j], -params.beta) / scale[j];
        }
    }

    let ratio = 2.0 * (params.alpha / window) * params.beta;
    dx[idx] = dy[idx] * pow(scale[idx], -params.beta) - ratio * x[idx] * accum;
}
`
