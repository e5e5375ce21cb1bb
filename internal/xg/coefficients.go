package xg

// Fitted coefficients. Each version extends the previous term list; the shared
// weights drift slightly because every version was fitted separately.

// V1: location, empty net and manpower.
var V1 = Model{
	Version:   1,
	Intercept: -1.8999656,
	Terms: []Term{
		{Distance, -0.0337112},
		{Angle, -0.0077118},
		{EmptyNet, 4.3321873},
		{PenaltyKill, 0.6454842},
		{PowerPlay, 0.4080557},
	},
}

// V2 adds rebound and rush.
var V2 = Model{
	Version:   2,
	Intercept: -1.9963221,
	Terms: []Term{
		{Distance, -0.0315542},
		{Angle, -0.0080897},
		{EmptyNet, 4.2879873},
		{PenaltyKill, 0.6673946},
		{PowerPlay, 0.4089630},
		{Rebound, 0.4133378},
		{Rush, -0.0657790},
	},
}

// V3 adds goal differential.
var V3 = Model{
	Version:   3,
	Intercept: -1.9942500,
	Terms: []Term{
		{Distance, -0.0315190},
		{Angle, -0.0080823},
		{EmptyNet, 4.2126061},
		{PenaltyKill, 0.6601609},
		{PowerPlay, 0.4106154},
		{Rebound, 0.4172151},
		{Rush, -0.0709434},
		{GoalDifferential, 0.0424470},
	},
}
