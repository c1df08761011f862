// Package config implements the named configuration registry consumed by
// the estimation filters (kalman.Kalman.GetMatrix/SetMatrix in spirit,
// §4.E/§6) and by the radar track applied filter (§6).
//
// Recognized keys and clamped ranges match the Configuration surface table
// in the specification: filterProcessingDelay, xManeuverVariance,
// yManeuverVariance, zManeuverVariance, rangeRateMeasurementCorrelationCoefficient,
// adaptiveProcessNoiseWindowSize, adaptiveNormResidualRatioThreshold, alpha,
// beta, kappa.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Registry holds the configuration surface as optional (pointer) fields so
// that a partial JSON document only overrides the keys it mentions; unset
// fields fall back to the Get* defaults below.
type Registry struct {
	FilterProcessingDelay                  *float64 `json:"filterProcessingDelay,omitempty"`
	RangeRateMeasurementCorrelationCoeff   *float64 `json:"rangeRateMeasurementCorrelationCoefficient,omitempty"`
	XManeuverVariance                      *float64 `json:"xManeuverVariance,omitempty"`
	YManeuverVariance                      *float64 `json:"yManeuverVariance,omitempty"`
	ZManeuverVariance                      *float64 `json:"zManeuverVariance,omitempty"`
	AdaptiveProcessNoiseWindowSize         *float64 `json:"adaptiveProcessNoiseWindowSize,omitempty"`
	AdaptiveNormResidualRatioThreshold     *float64 `json:"adaptiveNormResidualRatioThreshold,omitempty"`
	Alpha                                  *float64 `json:"alpha,omitempty"`
	Beta                                   *float64 `json:"beta,omitempty"`
	Kappa                                  *float64 `json:"kappa,omitempty"`
}

// DefaultConfigPath is a conventional location for a JSON document
// overriding registry defaults, for passing to Load. Nothing in this module
// reads it automatically, and no file is required to exist — Empty() is a
// perfectly usable registry.
const DefaultConfigPath = "config/estimation.defaults.json"

// Empty returns a registry with every field unset; every Get* call then
// returns its built-in default.
func Empty() *Registry { return &Registry{} }

func ptrFloat64(v float64) *float64 { return &v }

// Load reads a JSON document from path and overlays it on an empty
// registry. Fields omitted from the document keep their defaults, so
// partial configs are safe.
func Load(path string) (*Registry, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	r := Empty()
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	r.clamp()
	return r, nil
}

// clamp enforces the ranges named in the Configuration surface table,
// resetting and logging a warning for any out-of-range value rather than
// failing the load (spec.md §7: "config clamps" are locally recoverable).
func (r *Registry) clamp() {
	if r.RangeRateMeasurementCorrelationCoeff != nil {
		v := *r.RangeRateMeasurementCorrelationCoeff
		if v < 0 || v > 1 {
			log.Printf("config: rangeRateMeasurementCorrelationCoefficient %v out of [0,1], resetting to 0", v)
			r.RangeRateMeasurementCorrelationCoeff = ptrFloat64(0)
		}
	}
	if r.AdaptiveProcessNoiseWindowSize != nil && *r.AdaptiveProcessNoiseWindowSize < 0 {
		log.Printf("config: adaptiveProcessNoiseWindowSize %v < 0, resetting to 0", *r.AdaptiveProcessNoiseWindowSize)
		r.AdaptiveProcessNoiseWindowSize = ptrFloat64(0)
	}
	if r.AdaptiveNormResidualRatioThreshold != nil && *r.AdaptiveNormResidualRatioThreshold < 0 {
		log.Printf("config: adaptiveNormResidualRatioThreshold %v < 0, resetting to 0", *r.AdaptiveNormResidualRatioThreshold)
		r.AdaptiveNormResidualRatioThreshold = ptrFloat64(0)
	}
	if r.Alpha != nil {
		v := *r.Alpha
		if v < 1e-4 || v > 1 {
			log.Printf("config: alpha %v out of [1e-4,1], clamping", v)
			r.Alpha = ptrFloat64(clampF(v, 1e-4, 1))
		}
	}
	if r.Beta != nil && *r.Beta < 0 {
		log.Printf("config: beta %v < 0, resetting to 0", *r.Beta)
		r.Beta = ptrFloat64(0)
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// GetFilterProcessingDelay returns the processing delay in seconds.
func (r *Registry) GetFilterProcessingDelay() float64 {
	if r == nil || r.FilterProcessingDelay == nil {
		return 0
	}
	return *r.FilterProcessingDelay
}

// GetRangeRateMeasurementCorrelationCoefficient returns rho, the
// correlation coefficient between range and range-rate measurement noise.
func (r *Registry) GetRangeRateMeasurementCorrelationCoefficient() float64 {
	if r == nil || r.RangeRateMeasurementCorrelationCoeff == nil {
		return 0
	}
	return *r.RangeRateMeasurementCorrelationCoeff
}

// GetXManeuverVariance returns the Singer-model per-axis maneuver variance for x.
func (r *Registry) GetXManeuverVariance() float64 {
	if r == nil || r.XManeuverVariance == nil {
		return 1.0
	}
	return *r.XManeuverVariance
}

// GetYManeuverVariance returns the Singer-model per-axis maneuver variance for y.
func (r *Registry) GetYManeuverVariance() float64 {
	if r == nil || r.YManeuverVariance == nil {
		return 1.0
	}
	return *r.YManeuverVariance
}

// GetZManeuverVariance returns the Singer-model per-axis maneuver variance for z.
func (r *Registry) GetZManeuverVariance() float64 {
	if r == nil || r.ZManeuverVariance == nil {
		return 1.0
	}
	return *r.ZManeuverVariance
}

// GetAdaptiveProcessNoiseWindowSize returns gamma, the EKF adaptive process
// noise moving-window size. Zero disables adaptation.
func (r *Registry) GetAdaptiveProcessNoiseWindowSize() float64 {
	if r == nil || r.AdaptiveProcessNoiseWindowSize == nil {
		return 0
	}
	return *r.AdaptiveProcessNoiseWindowSize
}

// GetAdaptiveNormResidualRatioThreshold returns lambda, the EKF reverse
// prediction threshold. Zero disables reverse prediction.
func (r *Registry) GetAdaptiveNormResidualRatioThreshold() float64 {
	if r == nil || r.AdaptiveNormResidualRatioThreshold == nil {
		return 0
	}
	return *r.AdaptiveNormResidualRatioThreshold
}

// GetAlpha returns the UKF sigma-point spread parameter. Load clamps it to
// [1e-4, 1]; a value assigned directly to the field is returned unclamped.
func (r *Registry) GetAlpha() float64 {
	if r == nil || r.Alpha == nil {
		return 1e-3
	}
	return *r.Alpha
}

// GetBeta returns the UKF distribution-shape parameter (2 is optimal for Gaussians).
func (r *Registry) GetBeta() float64 {
	if r == nil || r.Beta == nil {
		return 2.0
	}
	return *r.Beta
}

// GetKappa returns the UKF secondary scaling parameter.
func (r *Registry) GetKappa() float64 {
	if r == nil || r.Kappa == nil {
		return 0.0
	}
	return *r.Kappa
}
