package domain

const (
	LawInheritance = "Inheritance"
	LawDivorce     = "Divorce"

	DocTypeCode = "code"
	DocTypeCase = "case"
)

const (
	FieldLaw                        = "law"
	FieldCountry                    = "country"
	FieldDocType                    = "doc_type"
	FieldSuccessionType             = "succession_type"
	FieldSubjectOfSuccession        = "subject_of_succession"
	FieldTestamentaryClauses        = "testamentary_clauses"
	FieldDisputedIssues             = "disputed_issues"
	FieldRelationshipBetweenParties = "relationship_between_parties"
	FieldNumberOfPersonsInvolved    = "number_of_persons_involved"
	FieldNatureOfSeparation         = "nature_of_separation"
	FieldPresenceOfChildren         = "presence_of_children"
	FieldMaritalRegime              = "marital_regime"
	FieldFinancialSupport           = "financial_support"
	FieldDuration                   = "duration"
	FieldDurationOfMarriage         = "duration_of_marriage"
	FieldCost                       = "cost"
	FieldCivilCodesUsed             = "civil_codes_used"
)

// LegalSchema describes the attributes extracted from a legal question.
var LegalSchema = NewMetadataSchema(
	FieldSpec{
		Name:     FieldLaw,
		Type:     FieldString,
		Enum:     []string{LawInheritance, LawDivorce},
		Required: true,
		Description: "Main legal area of the case/query. Use exactly 'Inheritance' for succession/eredità cases, " +
			"or 'Divorce' for divorce/separazione cases.",
	},
	FieldSpec{
		Name: FieldCountry,
		Type: FieldString,
		Enum: []string{"ITALY", "ESTONIA", "SLOVENIA"},
		Description: "Jurisdiction referenced by the query. Use exactly one of: ITALY, ESTONIA, SLOVENIA. " +
			"If not inferable, return null.",
		Fold: FoldUpper,
		Synonyms: map[string]string{
			"ITALIA":   "ITALY",
			"IT":       "ITALY",
			"ITALY":    "ITALY",
			"ESTONIA":  "ESTONIA",
			"EE":       "ESTONIA",
			"SLOVENIA": "SLOVENIA",
			"SI":       "SLOVENIA",
		},
	},
	FieldSpec{
		Name: FieldDocType,
		Type: FieldString,
		Enum: []string{DocTypeCode, DocTypeCase},
		Description: "Preferred document type. 'code' = civil code provisions/articles; " +
			"'case' = past legal cases/decisions. If unclear, return null.",
		Fold: FoldLower,
		Synonyms: map[string]string{
			"case":       DocTypeCase,
			"cases":      DocTypeCase,
			"decision":   DocTypeCase,
			"judgment":   DocTypeCase,
			"sentenza":   DocTypeCase,
			"code":       DocTypeCode,
			"codes":      DocTypeCode,
			"civil code": DocTypeCode,
			"article":    DocTypeCode,
			"articolo":   DocTypeCode,
			"norma":      DocTypeCode,
		},
	},
	FieldSpec{
		Name: FieldSuccessionType,
		Type: FieldString,
		Enum: []string{"testamentary", "legal"},
		Description: "Succession type. 'testamentary' = with a will, 'legal' = without a will. " +
			"If not inferable, return null.",
	},
	FieldSpec{
		Name: FieldSubjectOfSuccession,
		Type: FieldString,
		Description: "Type of inheritance assets involved: 'real estate', 'bank accounts', 'company shares', etc. " +
			"Very concise. If unknown, return null.",
	},
	FieldSpec{
		Name: FieldTestamentaryClauses,
		Type: FieldArray,
		Description: "Specific testamentary clauses mentioned, e.g. legacies, trusts, disinheritance clauses. " +
			"Use short phrases. If none, return [].",
	},
	FieldSpec{
		Name: FieldDisputedIssues,
		Type: FieldArray,
		Enum: []string{"validity of will", "division of assets", "legitimacy"},
		Description: "Specific disputes: 'validity of will', 'division of assets', 'legitimacy'. " +
			"Only use these values. If none, return [].",
	},
	FieldSpec{
		Name:        FieldRelationshipBetweenParties,
		Type:        FieldString,
		Description: "Relationship between heir and de cuius, e.g. 'spouse', 'child', 'sister'. If unknown, return null.",
	},
	FieldSpec{
		Name:        FieldNumberOfPersonsInvolved,
		Type:        FieldInteger,
		Description: "Number of heirs and/or legatees. If unknown, return null.",
	},
	FieldSpec{
		Name: FieldNatureOfSeparation,
		Type: FieldString,
		Enum: []string{"Voluntary", "Judicial", "consensual", "contentious"},
		Description: "Nature of separation, e.g. 'Voluntary', 'Judicial', 'consensual', or 'contentious'. " +
			"If not clear, return null.",
	},
	FieldSpec{
		Name: FieldPresenceOfChildren,
		Type: FieldBoolean,
		Description: "True if children are involved (maintenance, custody, visitation), false if explicitly none, " +
			"null if not mentioned.",
	},
	FieldSpec{
		Name: FieldMaritalRegime,
		Type: FieldString,
		Enum: []string{
			"community of property",
			"separation of property",
			"issues relatively division of common properties",
		},
		Description: "Marital regime affecting separation/divorce. If not inferable, null.",
	},
	FieldSpec{
		Name: FieldFinancialSupport,
		Type: FieldString,
		Description: "Details about alimony/spousal maintenance. Return ONLY the amount (if mentioned) followed by '€', " +
			"e.g. '1200 €'. If no amount, return null.",
	},
	FieldSpec{
		Name: FieldDuration,
		Type: FieldString,
		Description: "Duration of the legal procedure. Return a short phrase using years or months only, " +
			"e.g. '2 years', '6 months'. If unknown, return null.",
	},
	FieldSpec{
		Name: FieldDurationOfMarriage,
		Type: FieldString,
		Description: "Duration of marriage being dissolved. Short phrase using years or months, " +
			"e.g. '10 years', '18 months'. If unknown, return null.",
	},
	FieldSpec{
		Name: FieldCost,
		Type: FieldString,
		Description: "Cost associated with the legal procedure. Return ONLY the amount followed by '€', " +
			"e.g. '375760 €'. If unknown, return null.",
	},
	FieldSpec{
		Name:        FieldCivilCodesUsed,
		Type:        FieldArray,
		Description: "List of civil codes referenced. Return each as 'Art. <number>', e.g. 'Art. 536'.",
	},
)
