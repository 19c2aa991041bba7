// Package validation scores generated lesson text with fixed heuristics.
//
// # Overview
//
// A result starts at 100 and loses points for each failed check:
//
//  1. Length - text shorter than the requested minimum (-30)
//  2. Structure - no markdown headers (-15)
//  3. Formatting - neither emphasis nor lists (-15)
//  4. Kind checks - theory without definition/principle vocabulary (-20),
//     exercises with fewer than three questions (-20),
//     practical sections without an example marker (-10)
//
// Placeholder text such as "TODO" or "coming soon" makes the result invalid
// whatever the score. Empty text scores 0.
//
// # Usage
//
//	res := validation.Validate(text, models.KindCoreConcepts, 400)
//	if !res.Valid {
//	    return fmt.Errorf("rejected: %s", strings.Join(res.Issues, "; "))
//	}
package validation
