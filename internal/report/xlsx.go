package report

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

var companyHeader = []string{
	"Company", "Names", "Positions", "Start", "End", "Tenure", "Pattern", "Promotions", "Boomerang", "Top Skills",
}

var duplicateHeader = []string{
	"Group", "Confidence", "Score", "Matched Fields", "Job ID", "Title", "Org", "Start", "End",
}

// WriteXLSX writes the report as a workbook with Companies and Duplicates sheets.
func WriteXLSX(path string, rep *Report) error {
	f := xlsx.NewFile()

	companies, err := f.AddSheet("Companies")
	if err != nil {
		return eris.Wrap(err, "report: add companies sheet")
	}
	addRow(companies, companyHeader...)
	for _, c := range rep.Companies {
		addRow(companies,
			c.NormalizedName,
			strings.Join(c.OriginalNames, "; "),
			strconv.Itoa(len(c.Positions)),
			c.DateRange.Start,
			c.DateRange.End,
			c.Tenure.Formatted,
			string(c.CareerProgression.Pattern),
			strconv.Itoa(len(c.CareerProgression.Promotions)),
			strconv.FormatBool(c.BoomerangPattern.IsBoomerang),
			strings.Join(c.AggregatedSkills.TopSkills(5), ", "),
		)
	}

	dups, err := f.AddSheet("Duplicates")
	if err != nil {
		return eris.Wrap(err, "report: add duplicates sheet")
	}
	addRow(dups, duplicateHeader...)
	for i, g := range rep.Duplicates.Groups {
		for _, j := range g.Jobs {
			addRow(dups,
				strconv.Itoa(i+1),
				string(g.Confidence),
				strconv.FormatFloat(g.SimilarityScore, 'f', 3, 64),
				strings.Join(g.MatchedFields, ", "),
				j.ID,
				j.Title,
				j.Org,
				j.DateStart,
				j.DateEnd,
			)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
