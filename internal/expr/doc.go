// Package expr implements the small symbolic-expression engine backing
// rate equations and partially symbolic stoichiometric coefficients.
//
// Expressions are built from named symbols and numeric constants combined
// with the usual arithmetic operators. The engine deliberately stops short
// of general computer algebra: it supports exactly what process models
// need: parsing a textual rate law against a known symbol set, negation,
// scaling by a numeric factor, numeric evaluation against bound values,
// and deterministic printing. Double negation and scaling by 1 fold away
// so that reversal and re-normalization round-trip structurally.
package expr
