package intel

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnf/intelscope/pkg/domain"
)

// Mapper transforms one raw upstream record into the unified item model.
// Mappers are pure: the same record and clock always produce the same item.
// Missing fields degrade to documented fallbacks, they never fail the call.
type Mapper func(rec Raw, now time.Time) domain.Item

// isoDate returns the date field or "now" in ISO-8601 when the record has
// no usable date. The fallback is documented behavior, not an error.
func isoDate(dateField string, now time.Time) string {
	if dateField != "" {
		return dateField
	}
	return now.UTC().Format(time.RFC3339)
}

// setMeta stores a value in the meta bag, omitting absent/falsy values so
// consumers can treat missing keys as "not applicable"
func setMeta(m map[string]any, key string, v any) {
	switch val := v.(type) {
	case nil:
		return
	case string:
		if val == "" {
			return
		}
	case bool:
		if !val {
			return
		}
	case float64:
		if val == 0 {
			return
		}
	}
	m[key] = v
}

// fdaSeverity derives severity from the FDA recall classification string.
// A missing or unparseable classification means an enforcement action we
// cannot grade, which is treated as worst case.
func fdaSeverity(classification string) domain.Severity {
	if classification == "" {
		return domain.SeverityCritical
	}
	c := strings.ToLower(classification)
	switch {
	case strings.Contains(c, "class i") && !strings.Contains(c, "class ii") && !strings.Contains(c, "class iii"):
		return domain.SeverityCritical
	case strings.Contains(c, "class ii") && !strings.Contains(c, "class iii"):
		return domain.SeverityHigh
	case strings.Contains(c, "class iii"):
		return domain.SeverityMedium
	}
	return domain.SeverityCritical
}

// MapFDARecall maps an FDA enforcement/recall record
func MapFDARecall(rec Raw, now time.Time) domain.Item {
	firm := rec.StrOr("Unknown Firm", "recalling_firm")
	productType := rec.Str("product_type")
	classification := rec.Str("classification")

	brands := rec.Strings("openfda_brand_name")
	if len(brands) > 2 {
		brands = brands[:2]
	}

	label := classification
	if label == "" {
		label = "Recall"
	}
	title := fmt.Sprintf("FDA %s: %s", label, firm)
	if len(brands) > 0 {
		title = fmt.Sprintf("FDA %s: %s (%s)", label, strings.Join(brands, ", "), firm)
	}

	dateField := rec.Str("report_date", "recall_initiation_date", "created_at")

	entities := []string{firm}
	if productType == "drug" || productType == "device" {
		entities = append(entities, productType)
	}
	entities = append(entities, brands...)

	meta := map[string]any{}
	setMeta(meta, "classification", classification)
	setMeta(meta, "status", rec.Str("status"))
	setMeta(meta, "productType", productType)
	setMeta(meta, "recallNumber", rec.Str("recall_number"))
	setMeta(meta, "state", rec.Str("state"))

	return domain.Item{
		ID:          "fda-" + rec.Str("id", "recall_number"),
		Title:       Truncate(title, titleMax),
		Description: Truncate(rec.StrOr("FDA enforcement action.", "reason_for_recall", "product_description"), descriptionMax),
		Type:        domain.TypeRegulatory,
		Source:      "FDA",
		SourceKey:   "fda",
		Severity:    fdaSeverity(classification),
		Entities:    FilterEntities(entities...),
		Date:        isoDate(dateField, now),
		Timestamp:   RelativeTime(now, dateField),
		URL:         "/regulatory/fda/" + rec.Str("recall_number", "id"),
		Meta:        meta,
	}
}

// MapNHTSARecall maps a vehicle safety recall. All recalls are treated as
// highest urgency.
func MapNHTSARecall(rec Raw, now time.Time) domain.Item {
	make_ := rec.Str("make")
	model := rec.Str("model")
	year := rec.Str("model_year")
	component := rec.Str("component")

	title := fmt.Sprintf("NHTSA Recall: %s %s", make_, model)
	if year != "" {
		title += fmt.Sprintf(" (%s)", year)
	}
	if component != "" {
		title += " — " + component
	}

	dateField := rec.Str("recall_date", "created_at")

	meta := map[string]any{}
	setMeta(meta, "campaignNumber", rec.Str("campaign_number"))
	setMeta(meta, "make", make_)
	setMeta(meta, "model", model)
	setMeta(meta, "modelYear", year)
	setMeta(meta, "remedy", rec.Str("remedy"))
	setMeta(meta, "affectedUnits", rec.Num("potentially_affected"))

	return domain.Item{
		ID:          "nhtsa-recall-" + rec.Str("id", "campaign_number"),
		Title:       Truncate(title, titleMax),
		Description: Truncate(rec.StrOr("Vehicle safety recall issued.", "consequence", "summary"), descriptionMax),
		Type:        domain.TypeRegulatory,
		Source:      "NHTSA",
		SourceKey:   "nhtsa-recalls",
		Severity:    domain.SeverityCritical,
		Entities:    FilterEntities(make_, model, component, rec.Str("manufacturer")),
		Date:        isoDate(dateField, now),
		Timestamp:   RelativeTime(now, dateField),
		URL:         "/regulatory/nhtsa/recalls/" + rec.Str("campaign_number", "id"),
		Meta:        meta,
	}
}

// nhtsaComplaintSeverity grades a complaint by its incident flags: any
// death is critical, crash/fire/injury is high, everything else medium
func nhtsaComplaintSeverity(rec Raw) domain.Severity {
	if rec.Flag("has_death") || rec.Num("deaths") > 0 {
		return domain.SeverityCritical
	}
	if rec.Flag("has_crash", "crash") || rec.Flag("has_fire", "fire") {
		return domain.SeverityHigh
	}
	if rec.Flag("has_injury") || rec.Num("injuries") > 0 {
		return domain.SeverityHigh
	}
	return domain.SeverityMedium
}

// MapNHTSAComplaint maps a consumer vehicle safety complaint
func MapNHTSAComplaint(rec Raw, now time.Time) domain.Item {
	make_ := rec.Str("make")
	model := rec.Str("model")
	year := rec.Str("model_year")
	component := rec.Str("component")

	title := fmt.Sprintf("Consumer Complaint: %s %s", make_, model)
	if year != "" {
		title += " " + year
	}
	if component != "" {
		title += " — " + component
	}

	dateField := rec.Str("date_of_incident", "date_of_complaint", "created_at")

	var flags []string
	hasCrash := rec.Flag("has_crash", "crash")
	hasFire := rec.Flag("has_fire", "fire")
	hasInjury := rec.Flag("has_injury") || rec.Num("injuries") > 0
	hasDeath := rec.Flag("has_death") || rec.Num("deaths") > 0
	if hasCrash {
		flags = append(flags, "Crash")
	}
	if hasFire {
		flags = append(flags, "Fire")
	}
	if hasInjury {
		flags = append(flags, "Injury")
	}
	if hasDeath {
		flags = append(flags, "Death")
	}

	meta := map[string]any{}
	setMeta(meta, "make", make_)
	setMeta(meta, "model", model)
	setMeta(meta, "modelYear", year)
	setMeta(meta, "state", rec.Str("state"))
	setMeta(meta, "hasCrash", hasCrash)
	setMeta(meta, "hasFire", hasFire)
	setMeta(meta, "hasInjury", hasInjury)

	entities := append([]string{make_, model, component}, flags...)

	return domain.Item{
		ID:          "nhtsa-complaint-" + rec.Str("id", "nhtsa_id"),
		Title:       Truncate(title, titleMax),
		Description: Truncate(rec.StrOr("Consumer vehicle safety complaint.", "summary", "failure_description"), descriptionMax),
		Type:        domain.TypeRegulatory,
		Source:      "NHTSA",
		SourceKey:   "nhtsa-complaints",
		Severity:    nhtsaComplaintSeverity(rec),
		Entities:    FilterEntities(entities...),
		Date:        isoDate(dateField, now),
		Timestamp:   RelativeTime(now, dateField),
		URL:         "/regulatory/nhtsa/complaints/" + rec.Str("id"),
		Meta:        meta,
	}
}

// MapCFPBComplaint maps a consumer financial complaint. Disputed complaints
// rank high, routine ones medium.
func MapCFPBComplaint(rec Raw, now time.Time) domain.Item {
	company := rec.StrOr("Unknown Company", "company")
	product := rec.Str("product")
	issue := rec.Str("issue")

	var title string
	if issue != "" {
		title = fmt.Sprintf("%s: %s", company, issue)
	} else {
		subject := product
		if subject == "" {
			subject = "Consumer Complaint"
		}
		title = fmt.Sprintf("%s — %s", company, subject)
	}

	var descParts []string
	if s := rec.Str("sub_issue"); s != "" {
		descParts = append(descParts, s)
	}
	if s := rec.Str("company_response"); s != "" {
		descParts = append(descParts, s)
	}
	description := strings.Join(descParts, " — ")
	if description == "" {
		subject := product
		if subject == "" {
			subject = "financial product"
		}
		description = fmt.Sprintf("Consumer complaint regarding %s.", subject)
	}

	severity := domain.SeverityMedium
	if rec.Flag("consumer_disputed") {
		severity = domain.SeverityHigh
	}

	dateField := rec.Str("date_received", "created_at")

	meta := map[string]any{}
	setMeta(meta, "complaintId", rec.Str("complaint_id"))
	setMeta(meta, "product", product)
	setMeta(meta, "subProduct", rec.Str("sub_product"))
	setMeta(meta, "companyResponse", rec.Str("company_response"))
	setMeta(meta, "state", rec.Str("state"))
	setMeta(meta, "disputed", rec.Flag("consumer_disputed"))
	setMeta(meta, "practiceArea", rec.Str("detected_practice_area"))

	return domain.Item{
		ID:          "cfpb-" + rec.Str("id", "complaint_id"),
		Title:       Truncate(title, titleMax),
		Description: Truncate(description, descriptionMax),
		Type:        domain.TypeRegulatory,
		Source:      "CFPB",
		SourceKey:   "cfpb",
		Severity:    severity,
		Entities:    FilterEntities(company, product, rec.Str("sub_product")),
		Date:        isoDate(dateField, now),
		Timestamp:   RelativeTime(now, dateField),
		URL:         "/regulatory/cfpb/" + rec.Str("complaint_id", "id"),
		Meta:        meta,
	}
}

// MapFTCDNCComplaint maps a Do Not Call Registry violation report
func MapFTCDNCComplaint(rec Raw, now time.Time) domain.Item {
	company := rec.StrOr("Unknown", "company_name", "subject")
	dateField := rec.Str("violation_date", "created_date", "created_at")

	meta := map[string]any{}
	setMeta(meta, "violationDate", rec.Str("violation_date"))
	setMeta(meta, "state", rec.Str("consumer_state", "state"))

	return domain.Item{
		ID:          "ftc-dnc-" + rec.Str("id", "complaint_id"),
		Title:       Truncate("Do Not Call Violation: "+company, titleMax),
		Description: Truncate(rec.StrOr(fmt.Sprintf("Do Not Call Registry violation reported against %s.", company), "description"), descriptionMax),
		Type:        domain.TypeRegulatory,
		Source:      "FTC",
		SourceKey:   "ftc-dnc",
		Severity:    domain.SeverityLow,
		Entities:    FilterEntities(company),
		Date:        isoDate(dateField, now),
		Timestamp:   RelativeTime(now, dateField),
		Meta:        meta,
	}
}

// MapFTCHSRNotice maps a Hart-Scott-Rodino pre-merger notice
func MapFTCHSRNotice(rec Raw, now time.Time) domain.Item {
	acquiring := rec.StrOr("Unknown", "acquiring_party", "acquiring_person")
	acquired := rec.StrOr("Unknown", "acquired_party", "acquired_entity")
	dateField := rec.Str("early_termination_date", "created_at")

	meta := map[string]any{}
	setMeta(meta, "transactionNumber", rec.Str("transaction_number"))

	return domain.Item{
		ID:          "ftc-hsr-" + rec.Str("id", "transaction_number"),
		Title:       Truncate(fmt.Sprintf("HSR Filing: %s / %s", acquiring, acquired), titleMax),
		Description: Truncate(fmt.Sprintf("Pre-merger notification: %s acquiring %s.", acquiring, acquired), descriptionMax),
		Type:        domain.TypeFiling,
		Source:      "FTC",
		SourceKey:   "ftc-hsr",
		Severity:    domain.SeverityMedium,
		Entities:    FilterEntities(acquiring, acquired),
		Date:        isoDate(dateField, now),
		Timestamp:   RelativeTime(now, dateField),
		Meta:        meta,
	}
}

// MapSECFiling maps an EDGAR filing. Material event and annual report forms
// (8-K, 10-K) rank high, the rest medium.
func MapSECFiling(rec Raw, now time.Time) domain.Item {
	company := rec.StrOr("Unknown", "company_name", "entity_name")
	formType := rec.Str("form_type", "filing_type")
	dateField := rec.Str("filed_date", "filing_date", "created_at")

	severity := domain.SeverityMedium
	if strings.Contains(formType, "8-K") || strings.Contains(formType, "10-K") {
		severity = domain.SeverityHigh
	}

	meta := map[string]any{}
	setMeta(meta, "formType", formType)
	setMeta(meta, "accessionNumber", rec.Str("accession_number"))
	setMeta(meta, "cik", rec.Str("cik"))

	return domain.Item{
		ID:          "sec-" + rec.Str("id", "accession_number"),
		Title:       Truncate(fmt.Sprintf("SEC %s: %s", formType, company), titleMax),
		Description: Truncate(rec.StrOr(fmt.Sprintf("%s filing submitted by %s.", formType, company), "description"), descriptionMax),
		Type:        domain.TypeFiling,
		Source:      "SEC",
		SourceKey:   "sec",
		Severity:    severity,
		Entities:    FilterEntities(company, formType),
		Date:        isoDate(dateField, now),
		Timestamp:   RelativeTime(now, dateField),
		Meta:        meta,
	}
}

// MapFacebookAd maps Meta ad-library activity
func MapFacebookAd(rec Raw, now time.Time) domain.Item {
	advertiser := rec.StrOr("Unknown Advertiser", "page_name", "advertiser_name")
	dateField := rec.Str("ad_creation_time", "created_at")

	meta := map[string]any{}
	setMeta(meta, "adId", rec.Str("ad_id"))
	setMeta(meta, "pageName", rec.Str("page_name"))
	meta["platform"] = "facebook"

	return domain.Item{
		ID:          "fb-ad-" + rec.Str("id", "ad_id"),
		Title:       Truncate(advertiser+" — Meta Ad", titleMax),
		Description: Truncate(rec.StrOr("Meta advertising activity detected.", "ad_creative_body", "ad_creative_link_title"), descriptionMax),
		Type:        domain.TypeAd,
		Source:      "Meta",
		SourceKey:   "facebook-ads",
		Severity:    domain.SeverityLow,
		Entities:    FilterEntities(advertiser),
		Date:        isoDate(dateField, now),
		Timestamp:   RelativeTime(now, dateField),
		Meta:        meta,
	}
}

// MapLinkedInAd maps LinkedIn ad activity
func MapLinkedInAd(rec Raw, now time.Time) domain.Item {
	advertiser := rec.StrOr("Unknown Advertiser", "advertiser_name", "company_name")
	dateField := rec.Str("start_date", "created_at")

	meta := map[string]any{}
	setMeta(meta, "adId", rec.Str("ad_id"))
	meta["platform"] = "linkedin"

	return domain.Item{
		ID:          "li-ad-" + rec.Str("id", "ad_id"),
		Title:       Truncate(advertiser+" — LinkedIn Ad", titleMax),
		Description: Truncate(rec.StrOr("LinkedIn advertising activity detected.", "ad_text", "description"), descriptionMax),
		Type:        domain.TypeAd,
		Source:      "LinkedIn",
		SourceKey:   "linkedin-ads",
		Severity:    domain.SeverityLow,
		Entities:    FilterEntities(advertiser),
		Date:        isoDate(dateField, now),
		Timestamp:   RelativeTime(now, dateField),
		Meta:        meta,
	}
}
