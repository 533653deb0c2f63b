// Package domain models county-level socioeconomic data and the risk index
// derived from it.
//
// # Sources
//
// Four CSV files feed a run, each keyed by county and state in its own way:
//
//	federal employment   County, State, Year, January/February/March Employment
//	unemployment         County, State FIPS Code, Period, Unemployment Rate (%)
//	SNAP participation   county_name, state_name, snap_households
//	cost of living       county, state, total_cost
//
// Every source goes through [NewCountyKey] (or [NormalizeCounty] plus
// [FIPSToState] for unemployment) so rows join on the same [CountyKey].
// "Autauga County", "AUTAUGA" and "Autauga County, AL" all become "autauga".
//
// Unemployment periods arrive as "24-Jul", "2024-07" or "Jul-24"; see
// [ParsePeriod]. Two-digit years are 2000+YY. Every date is the first of its
// month in UTC.
//
// # Risk Index
//
// [MergeAndScore] joins everything onto the unemployment series and computes
//
//	population_estimate    = federal_employment * 50
//	employment_ratio       = federal_employment / (population_estimate + 1)
//	snap_rate              = snap_households / (population_estimate + 1)
//	unemployment_rate_norm = unemployment_rate / 100
//	cost_index_norm        = min-max scaled total_cost (0 when the range is 0)
//	risk_index             = 0.4*employment_ratio + 0.3*unemployment_rate_norm
//	                         + 0.2*snap_rate + 0.1*cost_index_norm
//
// NaN and infinities are replaced with 0 after every step, so risk_index is
// always finite.
//
// # Forecast Input
//
// The forecasting model reads exactly [DefaultMinPoints] monthly values.
// [AugmentSeries] truncates longer series to their most recent window and pads
// shorter ones on a synthetic monthly grid. With [AnchorEarliest] the grid
// ends at the first observation, so the model sees synthetic history before
// any real data; the result is an approximation, not a measured history.
package domain
