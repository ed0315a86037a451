// Package embeddings turns text into fixed-dimension vectors for similarity
// search. The primary provider runs a local ONNX model via FastEmbed; when
// the model cannot be loaded the package degrades to a deterministic
// hash-derived embedder so that retrieval keeps working without model files.
package embeddings
