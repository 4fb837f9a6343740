// Public domain.

// Package noise estimates the scale of noise-like samples.
//
// Two estimators are provided.  ClipRMS and its relatives iterate a 5σ clip
// about zero until the standard deviation settles.  FitGaussianWidth fits a
// Gaussian plus offset to a histogram of the sample.  Both are used on
// image pixels, the first for background rms and the second for the noise
// of a sampled image.
package noise
