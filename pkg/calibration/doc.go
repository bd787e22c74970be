// Package calibration defines the types used by the sensor calibration
// workflow. It contains:
//
//   - Status: how the active normalization ceilings were obtained
//   - Ceilings: the per-channel maxima raw readings are normalized against
//   - Report: the outcome of one calibration run, including per-channel
//     sample statistics
//   - the validation sentinels a failed run reports
//
// These types are shared across daemon, client and CLI code to avoid
// duplicate definitions and keep JSON contracts consistent.
package calibration
