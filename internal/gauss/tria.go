package gauss

import "gonum.org/v1/gonum/mat"

// Tria returns a lower-triangular n×n factor L with L·Lᵀ = A·Aᵀ for an n×m
// matrix A. It is computed from the QR decomposition of Aᵀ, zero-padded so
// the factorised matrix has at least as many rows as columns.
func Tria(a mat.Matrix) *mat.Dense {
	n, m := a.Dims()
	rows := m
	if rows < n {
		rows = n
	}

	at := mat.NewDense(rows, n, nil)
	at.Slice(0, m, 0, n).(*mat.Dense).Copy(a.T())

	var qr mat.QR
	qr.Factorize(at)

	var r mat.Dense
	qr.RTo(&r)

	l := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			l.Set(i, j, r.At(j, i))
		}
	}
	return l
}

// Blocks splits a square (p+q)×(p+q) lower-triangular matrix into its
// p×p, q×p and q×q blocks.
func Blocks(l *mat.Dense, p int) (l11, l21, l22 *mat.Dense) {
	n, _ := l.Dims()
	l11 = mat.DenseCopyOf(l.Slice(0, p, 0, p))
	l21 = mat.DenseCopyOf(l.Slice(p, n, 0, p))
	l22 = mat.DenseCopyOf(l.Slice(p, n, p, n))
	return l11, l21, l22
}
