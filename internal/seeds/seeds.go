package seeds

func SeedAll() error {
	return SeedAccounts()
}
