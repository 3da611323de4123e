package generator

// FirstPrimes returns the first n primes in ascending order.
func FirstPrimes(n int) []int64 {
	if n <= 0 {
		return nil
	}

	// Double the sieve limit until it holds n primes.
	limit := 16
	for {
		primes := sieve(limit)
		if len(primes) >= n {
			return primes[:n]
		}
		limit *= 2
	}
}

// sieve returns all primes <= limit.
func sieve(limit int) []int64 {
	composite := make([]bool, limit+1)
	var primes []int64
	for i := 2; i <= limit; i++ {
		if composite[i] {
			continue
		}
		primes = append(primes, int64(i))
		for j := i * i; j <= limit; j += i {
			composite[j] = true
		}
	}
	return primes
}
