package profile

// region is a US state code with the postal code range assigned to it
type region struct {
	code   string
	zipMin int
	zipMax int
}

var regions = []region{
	{"AL", 35004, 36925},
	{"AK", 99501, 99950},
	{"AZ", 85001, 86556},
	{"AR", 71601, 72959},
	{"CA", 90001, 96162},
	{"CO", 80001, 81658},
	{"CT", 6001, 6389},
	{"DC", 20001, 20039},
	{"DE", 19701, 19980},
	{"FL", 32004, 34997},
	{"GA", 30001, 31999},
	{"HI", 96701, 96898},
	{"IA", 50001, 52809},
	{"ID", 83201, 83876},
	{"IL", 60001, 62999},
	{"IN", 46001, 47997},
	{"KS", 66002, 67954},
	{"KY", 40003, 42788},
	{"LA", 70001, 71232},
	{"MA", 1001, 2791},
	{"MD", 20331, 21930},
	{"ME", 3901, 4992},
	{"MI", 48001, 49971},
	{"MN", 55001, 56763},
	{"MO", 63001, 65899},
	{"MS", 38601, 39776},
	{"MT", 59001, 59937},
	{"NC", 27006, 28909},
	{"ND", 58001, 58856},
	{"NE", 68001, 68118},
	{"NH", 3031, 3897},
	{"NJ", 7001, 8989},
	{"NM", 87001, 88441},
	{"NV", 88901, 89883},
	{"NY", 10001, 14975},
	{"OH", 43001, 45999},
	{"OK", 73001, 73199},
	{"OR", 97001, 97920},
	{"PA", 15001, 19640},
	{"RI", 2801, 2940},
	{"SC", 29001, 29948},
	{"SD", 57001, 57799},
	{"TN", 37010, 38589},
	{"TX", 75503, 79999},
	{"UT", 84001, 84784},
	{"VA", 22001, 24658},
	{"VT", 5001, 5495},
	{"WA", 98001, 99403},
	{"WI", 53001, 54990},
	{"WV", 24701, 26886},
	{"WY", 82001, 83128},
}

// RegionCodes returns every state code the generator can emit
func RegionCodes() []string {
	codes := make([]string, len(regions))
	for i, r := range regions {
		codes[i] = r.code
	}
	return codes
}

// ZipInRegion reports whether zip falls inside the range for code
func ZipInRegion(code, zip string) bool {
	if len(zip) != 5 {
		return false
	}
	n := 0
	for _, c := range zip {
		if c < '0' || c > '9' {
			return false
		}
		n = n*10 + int(c-'0')
	}
	for _, r := range regions {
		if r.code == code {
			return n >= r.zipMin && n <= r.zipMax
		}
	}
	return false
}

// areaCodes are real, populous North American area codes
var areaCodes = []string{
	"202", "212", "213", "305", "404", "415", "469", "503",
	"602", "617", "703", "704", "718", "801", "832", "904",
}

var topLevelDomains = []string{".com", ".co", ".io", ".net"}

var corporateSuffixes = map[string]bool{
	"inc": true, "llc": true, "ltd": true, "group": true, "plc": true, "corp": true,
}
