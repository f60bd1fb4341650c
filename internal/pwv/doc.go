// Package pwv provides access to the precipitable water vapor (PWV) data
// for Kitt Peak: SuomiNet GPS measurements, the PWV model derived from
// them, and the atmospheric transmission function due to PWV.
//
// Data lives under two directories. The tables directory holds
// measured_pwv.csv (a date column in UNIX seconds followed by one column
// per SuomiNet receiver, values in mm) and modeled_pwv.csv (date, pwv).
// The atmosphere models directory holds one CSV per PWV level named
// atm_model_pwv_<level>_mm.csv with wavelength (Å) and transmission
// columns.
package pwv
