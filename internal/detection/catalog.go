package detection

// CatalogEntry is the class name and treatment text for one class id.
type CatalogEntry struct {
	ClassName string
	Treatment Treatment
}

// Catalog maps class ids to their treatment text.
type Catalog map[int]CatalogEntry

// Merge returns a new catalog with the entries of other layered over c.
func (c Catalog) Merge(other Catalog) Catalog {
	out := make(Catalog, len(c)+len(other))
	for id, e := range c {
		out[id] = e
	}
	for id, e := range other {
		out[id] = e
	}
	return out
}

// DefaultCatalog returns the treatment text for the 31 classes produced by
// the dental detection model. The returned map is a fresh copy.
func DefaultCatalog() Catalog {
	return Catalog{}.Merge(defaultCatalog)
}

var defaultCatalog = Catalog{
	0: {"Caries", Treatment{
		"Active Carious Lesion Detected",
		"AI analysis has identified an active carious lesion requiring immediate intervention. The detected cavity shows demineralization patterns consistent with bacterial acid production. Prompt restorative treatment is essential to prevent pulpal involvement, secondary infection, and potential tooth loss.",
	}},
	1: {"Crown", Treatment{
		"Prosthetic Crown Evaluation",
		"Artificial crown restoration identified on tooth structure. Assessment needed for crown retention, marginal fit, and underlying abutment health. Evaluate for potential complications including crown loosening, cement washout, or secondary caries at crown margins.",
	}},
	2: {"Filling", Treatment{
		"Existing Restoration Assessment",
		"Previous restorative work detected, likely amalgam or composite filling. Clinical evaluation recommended to assess restoration integrity, marginal adaptation, and potential secondary caries formation. Monitor for signs of microleakage or restoration failure.",
	}},
	3: {"Implant", Treatment{
		"Dental Implant Identified",
		"Osseointegrated dental implant detected. Regular monitoring required for implant stability, peri-implant tissue health, and potential complications such as peri-implantitis. Assess prosthetic component integrity and occlusal relationships.",
	}},
	4: {"Malaligned", Treatment{
		"Dental Malalignment Detected",
		"Abnormal tooth positioning identified affecting occlusal harmony and function. May contribute to increased caries risk, periodontal disease, and compromised oral hygiene. Orthodontic evaluation recommended for treatment planning.",
	}},
	5: {"Mandibular Canal", Treatment{
		"Mandibular Canal Visualization",
		"Inferior alveolar nerve canal clearly visualized on radiographic imaging. Important anatomical landmark for surgical planning, especially for implant placement or third molar extraction. Maintain safe distance during procedures.",
	}},
	6: {"Missing Teeth", Treatment{
		"Tooth Absence Detected",
		"Missing tooth/teeth identified in the dental arch. Assessment needed to determine if congenitally absent or previously extracted. Consider prosthetic replacement options including implants, bridges, or removable prosthetics to restore function and prevent drift.",
	}},
	7: {"Periapical Lesion", Treatment{
		"Periapical Pathology Detected",
		"Radiolucent lesion identified at root apex, indicating periapical periodontitis or apical granuloma. This suggests pulpal necrosis with bacterial invasion. Immediate endodontic evaluation required for primary treatment or retreatment.",
	}},
	8: {"Retained Root", Treatment{
		"Retained Root Fragment",
		"Residual root structure detected following incomplete tooth extraction. May serve as nidus for infection or cyst formation. Surgical removal recommended unless asymptomatic and not interfering with prosthetic treatment plans.",
	}},
	9: {"Root Canal Treatment", Treatment{
		"Endodontically Treated Tooth",
		"Radiographic evidence of previous endodontic therapy. Post-treatment evaluation essential to assess healing response, confirm complete obturation, and rule out persistent periapical pathology or treatment failure requiring retreatment.",
	}},
	10: {"Root Piece", Treatment{
		"Root Fragment Identification",
		"Isolated root fragment or portion detected. Evaluate for vitality, structural integrity, and potential for restoration. Consider endodontic treatment if vital, or extraction if non-restorable or causing pathology.",
	}},
	11: {"Impacted Tooth", Treatment{
		"Tooth Impaction Identified",
		"Partially or completely impacted tooth detected. Assessment required for eruption potential and risk of complications including pericoronitis, cystic development, or damage to adjacent teeth. Surgical consultation may be indicated.",
	}},
	12: {"Maxillary Sinus", Treatment{
		"Maxillary Sinus Visualization",
		"Maxillary sinus cavity clearly visible on imaging. Important anatomical consideration for upper posterior dental procedures. Assess sinus floor proximity for implant planning and evaluate for sinusitis or pathology.",
	}},
	13: {"Bone Loss", Treatment{
		"Alveolar Bone Loss Detected",
		"Radiographic evidence of bone resorption around tooth roots, typically indicating periodontal disease progression. Comprehensive periodontal evaluation required to assess disease severity and determine appropriate treatment protocol.",
	}},
	14: {"Fractured Teeth", Treatment{
		"Dental Fracture Identified",
		"Structural discontinuity detected in tooth structure. Assess fracture extent, pulpal involvement, and restorability. Treatment options range from conservative restoration to extraction depending on fracture pattern and remaining tooth structure.",
	}},
	15: {"Permanent Teeth", Treatment{
		"Permanent Dentition",
		"Adult permanent teeth identified in normal developmental position. Routine maintenance and preventive care recommended. Monitor for caries, periodontal disease, and age-related changes requiring intervention.",
	}},
	16: {"Supra Eruption", Treatment{
		"Tooth Supra-eruption",
		"Excessive tooth eruption beyond normal occlusal plane detected, often due to loss of opposing tooth. May cause occlusal interference and TMJ problems. Consider crown reduction or prosthetic replacement of opposing tooth.",
	}},
	17: {"TAD", Treatment{
		"Temporary Anchorage Device",
		"Orthodontic mini-implant or temporary anchorage device identified. Monitor for stability, soft tissue health, and proper function during orthodontic treatment. Remove upon completion of tooth movement phase.",
	}},
	18: {"Abutment", Treatment{
		"Prosthetic Abutment",
		"Dental abutment component detected, likely supporting crown or bridge restoration. Assess abutment integrity, soft tissue response, and prosthetic fit. Monitor for complications such as loosening or tissue inflammation.",
	}},
	19: {"Attrition", Treatment{
		"Dental Attrition Pattern",
		"Physiological wear patterns detected on tooth surfaces from normal function. Excessive attrition may indicate bruxism or parafunctional habits. Consider occlusal guard therapy and stress management if pathological wear present.",
	}},
	20: {"Bone Defect", Treatment{
		"Osseous Defect Identified",
		"Localized bone deficiency detected, possibly from trauma, infection, or developmental anomaly. Evaluate need for bone grafting procedures prior to implant placement or to improve periodontal support.",
	}},
	21: {"Gingival Former", Treatment{
		"Gingival Forming Component",
		"Soft tissue shaping component identified, typically used during implant healing phase. Monitor healing response and tissue adaptation. Replace with final abutment once optimal gingival contours achieved.",
	}},
	22: {"Metal Band", Treatment{
		"Orthodontic Metal Band",
		"Orthodontic band cemented on tooth for bracket attachment. Monitor for proper fit, cement seal integrity, and potential decalcification around band margins. Maintain excellent oral hygiene during treatment.",
	}},
	23: {"Orthodontic Brackets", Treatment{
		"Active Orthodontic Treatment",
		"Orthodontic brackets and wires detected indicating active treatment phase. Monitor for bracket debonding, wire displacement, and oral hygiene maintenance. Regular adjustments required for optimal tooth movement.",
	}},
	24: {"Permanent Retainer", Treatment{
		"Fixed Orthodontic Retainer",
		"Bonded lingual retainer identified for maintaining tooth position post-orthodontic treatment. Check bond integrity and wire continuity. Emphasize importance of modified oral hygiene techniques and regular monitoring.",
	}},
	25: {"Post-Core", Treatment{
		"Endodontic Post System",
		"Intraradicular post and core restoration detected in endodontically treated tooth. Assess post retention, core integrity, and potential for root fracture. Monitor periapical healing and crown adaptation.",
	}},
	26: {"Plating", Treatment{
		"Surgical Fixation Hardware",
		"Orthopedic plating system identified, likely for jaw fracture repair or orthognathic surgery. Monitor healing progress, hardware stability, and potential complications such as infection or hardware failure.",
	}},
	27: {"Wire", Treatment{
		"Surgical Wire Fixation",
		"Metallic wire fixation detected, commonly used for fracture reduction or orthodontic purposes. Assess wire integrity, tissue response, and need for removal once healing complete or treatment goals achieved.",
	}},
	28: {"Cyst", Treatment{
		"Cystic Lesion Detected",
		"Radiolucent cystic lesion identified requiring histopathological diagnosis. May be odontogenic or non-odontogenic in origin. Surgical enucleation and biopsy recommended to determine exact nature and appropriate treatment.",
	}},
	29: {"Root Resorption", Treatment{
		"Root Resorption Process",
		"Pathological root structure loss detected, may be internal or external in nature. Determine etiology and progression rate. Treatment options include endodontic therapy, surgical intervention, or extraction depending on severity.",
	}},
	30: {"Primary Teeth", Treatment{
		"Deciduous Dentition",
		"Primary teeth identified in pediatric patient. Monitor normal exfoliation timeline and permanent successor development. Maintain primary teeth until natural replacement unless pathology or space management issues arise.",
	}},
}
