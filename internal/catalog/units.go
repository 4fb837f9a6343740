// Public domain.

package catalog

// Conversions between catalog and output units.

func ToMilli(x float64) float64   { return x * 1000 }
func FromMilli(x float64) float64 { return x / 1000 }

func DegToArcsec(x float64) float64 { return x * 3600 }
func ArcsecToDeg(x float64) float64 { return x / 3600 }
