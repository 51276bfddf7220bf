package domain

// TimeEpsilon absorbs floating-point drift when comparing simulated times.
// Processes on fractional time steps accumulate rounding error, so two
// times closer than this are treated as the same grid point. Both the
// scheduler and anything driving it cycle by cycle compare against the
// horizon with this tolerance.
const TimeEpsilon = 1e-9
