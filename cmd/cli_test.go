package cmd

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// resetFlags restores every flag to its default so invocations do not leak
// state into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

const happinessHeader = "Country,Region,Happiness Rank,Happiness Score,Standard Error,Economy (GDP per Capita),Family,Health (Life Expectancy),Freedom,Trust (Government Corruption),Generosity,Dystopia Residual\n"

const happinessRows = `Switzerland,Western Europe,1,7.587,0.03411,1.39651,1.34951,0.94143,0.66557,0.41978,0.29678,2.51738
Iceland,Western Europe,2,7.561,0.04884,1.30232,1.40223,0.94784,0.62877,0.14145,0.4363,2.70201
Canada,North America,5,7.427,0.03553,1.32629,1.32261,0.90563,0.63297,0.32957,0.45811,2.45176
Togo,Sub-Saharan Africa,158,2.839,0.06727,0.20868,0.13995,0.28443,0.36453,0.10731,0.16681,1.56726
Narnia,Fantasy,99,5.0,null,1,1,1,1,1,1,1
`

func writeFile(t *testing.T, path, body string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestCLI_ReportText(t *testing.T) {
	home := isolateHome(t)
	path := writeFile(t, filepath.Join(home, "2015.csv"), happinessHeader+happinessRows)

	out := runCmd(t, "report", path, "--workers", "2", "--partitions", "3")
	for _, want := range []string{
		"There are 5 rows and 12 columns.",
		"Histogram number of Countries by Regions : \n",
		"Region\t\tNumber of Countries\n",
		"Western Europe\t\t2\n",
		"North America\t\t1\n",
		"Southern Asia\t\t0\n",
		"Happiness Score:\n\tMinimum: 2.839\n",
		"Correlation Matrix for 2015.csv : \n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Fantasy\t\t") {
		t.Fatalf("unknown region must not appear as a histogram bin:\n%s", out)
	}
}

func TestCLI_ReportMarkdownFileAndYAML(t *testing.T) {
	home := isolateHome(t)
	path := writeFile(t, filepath.Join(home, "2015.csv"), happinessHeader+happinessRows)
	dest := filepath.Join(home, "out.md")

	out := runCmd(t, "report", path, "--format", "markdown", "-o", dest)
	if !strings.Contains(out, "✓ Wrote report to") {
		t.Fatalf("unexpected output: %s", out)
	}
	body, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{"[DATASET SUMMARY]", "[HISTOGRAM BY REGION]", "[COLUMN STATISTICS]", "[CORRELATION MATRIX]"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("markdown missing %s:\n%s", want, body)
		}
	}

	out = runCmd(t, "report", path, "--format", "yaml", "--sections", "histogram,correlation")
	var decoded struct {
		Overview    any `yaml:"overview"`
		Correlation struct {
			Rows    int      `yaml:"rows"`
			Columns []string `yaml:"columns"`
		} `yaml:"correlation"`
	}
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("yaml output does not parse: %v\n%s", err, out)
	}
	if decoded.Overview != nil {
		t.Fatalf("overview was not requested")
	}
	if decoded.Correlation.Rows != 4 || len(decoded.Correlation.Columns) != 10 {
		t.Fatalf("unexpected correlation section: %+v", decoded.Correlation)
	}
}

func TestCLI_ReportSingleRowSkipsCorrelation(t *testing.T) {
	home := isolateHome(t)
	rows := strings.Split(happinessRows, "\n")
	path := writeFile(t, filepath.Join(home, "one.csv"), happinessHeader+rows[0]+"\n"+rows[4]+"\n")

	out := runCmd(t, "report", path)
	if !strings.Contains(out, "No correlation matrix shown: The number of non-null or constant rows (1) is less than 2") {
		t.Fatalf("expected skip message:\n%s", out)
	}
	if !strings.Contains(out, "Columns statistics :") {
		t.Fatalf("statistics must still be reported:\n%s", out)
	}
}

func TestCLI_ReportSQLiteTable(t *testing.T) {
	home := isolateHome(t)
	path := filepath.Join(home, "happiness.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE y2015 (country TEXT, region TEXT, rank INTEGER, score REAL, se REAL, gdp REAL,
		family REAL, health REAL, freedom REAL, trust REAL, generosity REAL, dystopia REAL)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, line := range strings.Split(strings.TrimSpace(happinessRows), "\n")[:4] {
		f := strings.Split(line, ",")
		args := make([]any, len(f))
		for i := range f {
			args[i] = f[i]
		}
		if _, err := db.Exec(`INSERT INTO y2015 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`, args...); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	out := runCmd(t, "report", path, "--table", "y2015")
	if !strings.Contains(out, "There are 4 rows and 12 columns.") {
		t.Fatalf("unexpected overview:\n%s", out)
	}
	if !strings.Contains(out, "labelled as") {
		t.Fatalf("expected header name warnings:\n%s", out)
	}
}

func TestCLI_ReportBatchOutDir(t *testing.T) {
	home := isolateHome(t)
	writeFile(t, filepath.Join(home, "d1", "metrics.csv"), happinessHeader+happinessRows)
	writeFile(t, filepath.Join(home, "d2", "metrics.csv"), happinessHeader+happinessRows)
	outDir := filepath.Join(home, "reports")

	runCmd(t, "report-batch", filepath.Join(home, "d*", "metrics.csv"), "--out-dir", outDir, "--format", "md", "--quiet")

	for _, name := range []string{"metrics.report.md", "metrics__2.report.md"} {
		body, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
		if !strings.Contains(string(body), "[COLUMN STATISTICS]") {
			t.Fatalf("%s is not a markdown report", name)
		}
	}

	if _, err := execute("report-batch", filepath.Join(home, "nothing*.csv")); err == nil {
		t.Fatalf("expected error when no inputs match")
	}
}

func TestCLI_ProfileInitShowAndCustomProfile(t *testing.T) {
	home := isolateHome(t)
	prof := filepath.Join(home, "profile.yaml")

	runCmd(t, "profile", "init", prof)
	if _, err := execute("profile", "init", prof); err == nil {
		t.Fatalf("expected refusal to overwrite without --force")
	}
	runCmd(t, "profile", "init", prof, "--force")

	out := runCmd(t, "profile", "show", "--profile", prof)
	if !strings.Contains(out, "happiness-2015") || !strings.Contains(out, "Western Europe") {
		t.Fatalf("unexpected profile:\n%s", out)
	}

	small := writeFile(t, filepath.Join(home, "small.yaml"), `name: small
columns:
  - {index: 0, name: id, kind: identifier}
  - {index: 1, name: group, kind: category}
  - {index: 2, name: x, kind: numeric}
  - {index: 3, name: y, kind: numeric}
categories:
  - {index: 0, name: A}
  - {index: 1, name: B}
`)
	data := writeFile(t, filepath.Join(home, "small.csv"), "id,group,x,y\na,A,1,2\nb,A,2,4\nc,B,3,7\n")
	out = runCmd(t, "report", data, "--profile", small)
	if !strings.Contains(out, "A\t\t2\n") || !strings.Contains(out, "Correlation Matrix for small.csv") {
		t.Fatalf("unexpected report with custom profile:\n%s", out)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	isolateHome(t)
	runCmd(t, "config", "set", "format", "markdown")
	runCmd(t, "config", "set", "workers", "3")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "format: markdown") || !strings.Contains(out, "workers: 3") {
		t.Fatalf("config not persisted:\n%s", out)
	}
	if _, err := execute("config", "set", "format", "pdf"); err == nil {
		t.Fatalf("expected invalid format error")
	}
	if _, err := execute("config", "set", "colour", "blue"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestCLI_RejectsBadFlags(t *testing.T) {
	home := isolateHome(t)
	path := writeFile(t, filepath.Join(home, "2015.csv"), happinessHeader+happinessRows)
	if _, err := execute("report", path, "--sections", "charts"); err == nil {
		t.Fatalf("expected unknown section error")
	}
	if _, err := execute("report", path, "--workers", "-2"); err == nil {
		t.Fatalf("expected negative workers error")
	}
	if _, err := execute("report", path, "--delimiter", ",,"); err == nil {
		t.Fatalf("expected bad delimiter error")
	}
	if _, err := execute("report", filepath.Join(home, "data.parquet")); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
