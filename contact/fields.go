package contact

// Catalog fields. The value of each constant is the protocol id.
const (
	FieldObjectID               Field = 1
	FieldCreatedBy              Field = 2
	FieldModifiedBy             Field = 3
	FieldCreationDate           Field = 4
	FieldLastModified           Field = 5
	FieldFolderID               Field = 20
	FieldCategories             Field = 100
	FieldPrivateFlag            Field = 101
	FieldColorLabel             Field = 102
	FieldNumberOfAttachments    Field = 104
	FieldUID                    Field = 223
	FieldFilename               Field = 224
	FieldDisplayName            Field = 500
	FieldGivenName              Field = 501
	FieldSurName                Field = 502
	FieldMiddleName             Field = 503
	FieldSuffix                 Field = 504
	FieldTitle                  Field = 505
	FieldStreetHome             Field = 506
	FieldPostalCodeHome         Field = 507
	FieldCityHome               Field = 508
	FieldStateHome              Field = 509
	FieldCountryHome            Field = 510
	FieldBirthday               Field = 511
	FieldMaritalStatus          Field = 512
	FieldNumberOfChildren       Field = 513
	FieldProfession             Field = 514
	FieldNickname               Field = 515
	FieldSpouseName             Field = 516
	FieldAnniversary            Field = 517
	FieldNote                   Field = 518
	FieldDepartment             Field = 519
	FieldPosition               Field = 520
	FieldEmployeeType           Field = 521
	FieldRoomNumber             Field = 522
	FieldStreetBusiness         Field = 523
	FieldInternalUserID         Field = 524
	FieldPostalCodeBusiness     Field = 525
	FieldCityBusiness           Field = 526
	FieldStateBusiness          Field = 527
	FieldCountryBusiness        Field = 528
	FieldNumberOfEmployees      Field = 529
	FieldSalesVolume            Field = 530
	FieldTaxID                  Field = 531
	FieldCommercialRegister     Field = 532
	FieldBranches               Field = 533
	FieldBusinessCategory       Field = 534
	FieldInfo                   Field = 535
	FieldManagerName            Field = 536
	FieldAssistantName          Field = 537
	FieldStreetOther            Field = 538
	FieldCityOther              Field = 539
	FieldPostalCodeOther        Field = 540
	FieldCountryOther           Field = 541
	FieldTelephoneBusiness1     Field = 542
	FieldTelephoneBusiness2     Field = 543
	FieldFaxBusiness            Field = 544
	FieldTelephoneCallback      Field = 545
	FieldTelephoneCar           Field = 546
	FieldTelephoneCompany       Field = 547
	FieldTelephoneHome1         Field = 548
	FieldTelephoneHome2         Field = 549
	FieldFaxHome                Field = 550
	FieldCellularTelephone1     Field = 551
	FieldCellularTelephone2     Field = 552
	FieldTelephoneOther         Field = 553
	FieldFaxOther               Field = 554
	FieldEmail1                 Field = 555
	FieldEmail2                 Field = 556
	FieldEmail3                 Field = 557
	FieldURL                    Field = 558
	FieldTelephoneISDN          Field = 559
	FieldTelephonePager         Field = 560
	FieldTelephonePrimary       Field = 561
	FieldTelephoneRadio         Field = 562
	FieldTelephoneTelex         Field = 563
	FieldTelephoneTTYTDD        Field = 564
	FieldInstantMessenger1      Field = 565
	FieldInstantMessenger2      Field = 566
	FieldTelephoneIP            Field = 567
	FieldTelephoneAssistant     Field = 568
	FieldCompany                Field = 569
	FieldImage1                 Field = 570
	FieldUserField01            Field = 571
	FieldUserField02            Field = 572
	FieldUserField03            Field = 573
	FieldUserField04            Field = 574
	FieldUserField05            Field = 575
	FieldUserField06            Field = 576
	FieldUserField07            Field = 577
	FieldUserField08            Field = 578
	FieldUserField09            Field = 579
	FieldUserField10            Field = 580
	FieldUserField11            Field = 581
	FieldUserField12            Field = 582
	FieldUserField13            Field = 583
	FieldUserField14            Field = 584
	FieldUserField15            Field = 585
	FieldUserField16            Field = 586
	FieldUserField17            Field = 587
	FieldUserField18            Field = 588
	FieldUserField19            Field = 589
	FieldUserField20            Field = 590
	FieldLinks                  Field = 591
	FieldDistributionList       Field = 592
	FieldImageLastModified      Field = 597
	FieldStateOther             Field = 598
	FieldFileAs                 Field = 599
	FieldImageContentType       Field = 601
	FieldMarkAsDistributionList Field = 602
	FieldDefaultAddress         Field = 605
	FieldImageURL               Field = 606
	FieldUseCount               Field = 608
	FieldYomiFirstName          Field = 610
	FieldYomiLastName           Field = 611
	FieldYomiCompany            Field = 612
)

var fieldTable = []fieldDef{
	{FieldObjectID, "ObjectID", "id", "Object ID", "id", KindString, 0, func(c *Contact) any { return &c.ID }},
	{FieldCreatedBy, "CreatedBy", "created_by", "Created by", "created_by", KindString, 0, func(c *Contact) any { return &c.CreatedBy }},
	{FieldModifiedBy, "ModifiedBy", "modified_by", "Modified by", "modified_by", KindString, 0, func(c *Contact) any { return &c.ModifiedBy }},
	{FieldCreationDate, "CreationDate", "created_at", "Creation date", "creation_date", KindTime, 0, func(c *Contact) any { return &c.CreationDate }},
	{FieldLastModified, "LastModified", "updated_at", "Last modified", "last_modified", KindTime, 0, func(c *Contact) any { return &c.LastModified }},
	{FieldFolderID, "FolderID", "folder_id", "Folder ID", "folder_id", KindString, 0, func(c *Contact) any { return &c.FolderID }},
	{FieldCategories, "Categories", "categories", "Categories", "categories", KindString, 1024, func(c *Contact) any { return &c.Categories }},
	{FieldPrivateFlag, "PrivateFlag", "private_flag", "Private", "private_flag", KindBool, 0, func(c *Contact) any { return &c.PrivateFlag }},
	{FieldColorLabel, "ColorLabel", "color_label", "Color label", "color_label", KindInt, 0, func(c *Contact) any { return &c.ColorLabel }},
	{FieldNumberOfAttachments, "NumberOfAttachments", "attachment_count", "Number of attachments", "number_of_attachments", KindInt, 0, func(c *Contact) any { return &c.NumberOfAttachments }},
	{FieldUID, "UID", "uid", "UID", "uid", KindString, 255, func(c *Contact) any { return &c.UID }},
	{FieldFilename, "Filename", "filename", "Filename", "filename", KindString, 255, func(c *Contact) any { return &c.Filename }},
	{FieldDisplayName, "DisplayName", "display_name", "Display name", "display_name", KindString, 320, func(c *Contact) any { return &c.DisplayName }},
	{FieldGivenName, "GivenName", "given_name", "First name", "first_name", KindString, 128, func(c *Contact) any { return &c.GivenName }},
	{FieldSurName, "SurName", "sur_name", "Last name", "last_name", KindString, 128, func(c *Contact) any { return &c.SurName }},
	{FieldMiddleName, "MiddleName", "middle_name", "Middle name", "second_name", KindString, 128, func(c *Contact) any { return &c.MiddleName }},
	{FieldSuffix, "Suffix", "suffix", "Suffix", "suffix", KindString, 64, func(c *Contact) any { return &c.Suffix }},
	{FieldTitle, "Title", "title", "Title", "title", KindString, 64, func(c *Contact) any { return &c.Title }},
	{FieldStreetHome, "StreetHome", "home_street", "Street (home)", "street_home", KindString, 256, func(c *Contact) any { return &c.StreetHome }},
	{FieldPostalCodeHome, "PostalCodeHome", "home_postal_code", "Postal code (home)", "postal_code_home", KindString, 64, func(c *Contact) any { return &c.PostalCodeHome }},
	{FieldCityHome, "CityHome", "home_city", "City (home)", "city_home", KindString, 128, func(c *Contact) any { return &c.CityHome }},
	{FieldStateHome, "StateHome", "home_state", "State (home)", "state_home", KindString, 128, func(c *Contact) any { return &c.StateHome }},
	{FieldCountryHome, "CountryHome", "home_country", "Country (home)", "country_home", KindString, 128, func(c *Contact) any { return &c.CountryHome }},
	{FieldBirthday, "Birthday", "birthday", "Birthday", "birthday", KindDate, 0, func(c *Contact) any { return &c.Birthday }},
	{FieldMaritalStatus, "MaritalStatus", "marital_status", "Marital status", "marital_status", KindString, 64, func(c *Contact) any { return &c.MaritalStatus }},
	{FieldNumberOfChildren, "NumberOfChildren", "children", "Children", "number_of_children", KindString, 64, func(c *Contact) any { return &c.NumberOfChildren }},
	{FieldProfession, "Profession", "profession", "Profession", "profession", KindString, 256, func(c *Contact) any { return &c.Profession }},
	{FieldNickname, "Nickname", "nickname", "Nickname", "nickname", KindString, 128, func(c *Contact) any { return &c.Nickname }},
	{FieldSpouseName, "SpouseName", "spouse_name", "Spouse's name", "spouse_name", KindString, 128, func(c *Contact) any { return &c.SpouseName }},
	{FieldAnniversary, "Anniversary", "anniversary", "Anniversary", "anniversary", KindDate, 0, func(c *Contact) any { return &c.Anniversary }},
	{FieldNote, "Note", "note", "Note", "note", KindString, 5680, func(c *Contact) any { return &c.Note }},
	{FieldDepartment, "Department", "department", "Department", "department", KindString, 128, func(c *Contact) any { return &c.Department }},
	{FieldPosition, "Position", "job_position", "Position", "position", KindString, 128, func(c *Contact) any { return &c.Position }},
	{FieldEmployeeType, "EmployeeType", "employee_type", "Employee type", "employee_type", KindString, 128, func(c *Contact) any { return &c.EmployeeType }},
	{FieldRoomNumber, "RoomNumber", "room_number", "Room number", "room_number", KindString, 64, func(c *Contact) any { return &c.RoomNumber }},
	{FieldStreetBusiness, "StreetBusiness", "business_street", "Street (business)", "street_business", KindString, 256, func(c *Contact) any { return &c.StreetBusiness }},
	{FieldInternalUserID, "InternalUserID", "internal_user_id", "User ID", "user_id", KindInt, 0, func(c *Contact) any { return &c.InternalUserID }},
	{FieldPostalCodeBusiness, "PostalCodeBusiness", "business_postal_code", "Postal code (business)", "postal_code_business", KindString, 64, func(c *Contact) any { return &c.PostalCodeBusiness }},
	{FieldCityBusiness, "CityBusiness", "business_city", "City (business)", "city_business", KindString, 128, func(c *Contact) any { return &c.CityBusiness }},
	{FieldStateBusiness, "StateBusiness", "business_state", "State (business)", "state_business", KindString, 128, func(c *Contact) any { return &c.StateBusiness }},
	{FieldCountryBusiness, "CountryBusiness", "business_country", "Country (business)", "country_business", KindString, 128, func(c *Contact) any { return &c.CountryBusiness }},
	{FieldNumberOfEmployees, "NumberOfEmployees", "employee_count", "Number of employees", "number_of_employees", KindString, 64, func(c *Contact) any { return &c.NumberOfEmployees }},
	{FieldSalesVolume, "SalesVolume", "sales_volume", "Sales volume", "sales_volume", KindString, 64, func(c *Contact) any { return &c.SalesVolume }},
	{FieldTaxID, "TaxID", "tax_id", "TAX ID", "tax_id", KindString, 64, func(c *Contact) any { return &c.TaxID }},
	{FieldCommercialRegister, "CommercialRegister", "commercial_register", "Commercial register", "commercial_register", KindString, 64, func(c *Contact) any { return &c.CommercialRegister }},
	{FieldBranches, "Branches", "branches", "Branches", "branches", KindString, 128, func(c *Contact) any { return &c.Branches }},
	{FieldBusinessCategory, "BusinessCategory", "business_category", "Business category", "business_category", KindString, 128, func(c *Contact) any { return &c.BusinessCategory }},
	{FieldInfo, "Info", "info", "Info", "info", KindString, 256, func(c *Contact) any { return &c.Info }},
	{FieldManagerName, "ManagerName", "manager_name", "Manager", "manager_name", KindString, 128, func(c *Contact) any { return &c.ManagerName }},
	{FieldAssistantName, "AssistantName", "assistant_name", "Assistant", "assistant_name", KindString, 128, func(c *Contact) any { return &c.AssistantName }},
	{FieldStreetOther, "StreetOther", "other_street", "Street (other)", "street_other", KindString, 256, func(c *Contact) any { return &c.StreetOther }},
	{FieldCityOther, "CityOther", "other_city", "City (other)", "city_other", KindString, 128, func(c *Contact) any { return &c.CityOther }},
	{FieldPostalCodeOther, "PostalCodeOther", "other_postal_code", "Postal code (other)", "postal_code_other", KindString, 64, func(c *Contact) any { return &c.PostalCodeOther }},
	{FieldCountryOther, "CountryOther", "other_country", "Country (other)", "country_other", KindString, 128, func(c *Contact) any { return &c.CountryOther }},
	{FieldTelephoneBusiness1, "TelephoneBusiness1", "phone_business1", "Phone (business)", "telephone_business1", KindString, 64, func(c *Contact) any { return &c.TelephoneBusiness1 }},
	{FieldTelephoneBusiness2, "TelephoneBusiness2", "phone_business2", "Phone (business 2)", "telephone_business2", KindString, 64, func(c *Contact) any { return &c.TelephoneBusiness2 }},
	{FieldFaxBusiness, "FaxBusiness", "fax_business", "Fax (business)", "fax_business", KindString, 64, func(c *Contact) any { return &c.FaxBusiness }},
	{FieldTelephoneCallback, "TelephoneCallback", "phone_callback", "Telephone callback", "telephone_callback", KindString, 64, func(c *Contact) any { return &c.TelephoneCallback }},
	{FieldTelephoneCar, "TelephoneCar", "phone_car", "Phone (car)", "telephone_car", KindString, 64, func(c *Contact) any { return &c.TelephoneCar }},
	{FieldTelephoneCompany, "TelephoneCompany", "phone_company", "Phone (company)", "telephone_company", KindString, 64, func(c *Contact) any { return &c.TelephoneCompany }},
	{FieldTelephoneHome1, "TelephoneHome1", "phone_home1", "Phone (home)", "telephone_home1", KindString, 64, func(c *Contact) any { return &c.TelephoneHome1 }},
	{FieldTelephoneHome2, "TelephoneHome2", "phone_home2", "Phone (home 2)", "telephone_home2", KindString, 64, func(c *Contact) any { return &c.TelephoneHome2 }},
	{FieldFaxHome, "FaxHome", "fax_home", "Fax (home)", "fax_home", KindString, 64, func(c *Contact) any { return &c.FaxHome }},
	{FieldCellularTelephone1, "CellularTelephone1", "phone_mobile1", "Cell phone", "cellular_telephone1", KindString, 64, func(c *Contact) any { return &c.CellularTelephone1 }},
	{FieldCellularTelephone2, "CellularTelephone2", "phone_mobile2", "Cell phone (alt)", "cellular_telephone2", KindString, 64, func(c *Contact) any { return &c.CellularTelephone2 }},
	{FieldTelephoneOther, "TelephoneOther", "phone_other", "Phone (other)", "telephone_other", KindString, 64, func(c *Contact) any { return &c.TelephoneOther }},
	{FieldFaxOther, "FaxOther", "fax_other", "Fax (alt)", "fax_other", KindString, 64, func(c *Contact) any { return &c.FaxOther }},
	{FieldEmail1, "Email1", "email1", "Email 1", "email1", KindString, 512, func(c *Contact) any { return &c.Email1 }},
	{FieldEmail2, "Email2", "email2", "Email 2", "email2", KindString, 512, func(c *Contact) any { return &c.Email2 }},
	{FieldEmail3, "Email3", "email3", "Email 3", "email3", KindString, 512, func(c *Contact) any { return &c.Email3 }},
	{FieldURL, "URL", "url", "URL", "url", KindString, 256, func(c *Contact) any { return &c.URL }},
	{FieldTelephoneISDN, "TelephoneISDN", "phone_isdn", "Telephone (ISDN)", "telephone_isdn", KindString, 64, func(c *Contact) any { return &c.TelephoneISDN }},
	{FieldTelephonePager, "TelephonePager", "phone_pager", "Pager", "telephone_pager", KindString, 64, func(c *Contact) any { return &c.TelephonePager }},
	{FieldTelephonePrimary, "TelephonePrimary", "phone_primary", "Telephone primary", "telephone_primary", KindString, 64, func(c *Contact) any { return &c.TelephonePrimary }},
	{FieldTelephoneRadio, "TelephoneRadio", "phone_radio", "Telephone radio", "telephone_radio", KindString, 64, func(c *Contact) any { return &c.TelephoneRadio }},
	{FieldTelephoneTelex, "TelephoneTelex", "phone_telex", "Telex", "telephone_telex", KindString, 64, func(c *Contact) any { return &c.TelephoneTelex }},
	{FieldTelephoneTTYTDD, "TelephoneTTYTDD", "phone_ttytdd", "TTY/TDD", "telephone_ttytdd", KindString, 64, func(c *Contact) any { return &c.TelephoneTTYTDD }},
	{FieldInstantMessenger1, "InstantMessenger1", "instant_messenger1", "Instant Messenger 1", "instant_messenger1", KindString, 64, func(c *Contact) any { return &c.InstantMessenger1 }},
	{FieldInstantMessenger2, "InstantMessenger2", "instant_messenger2", "Instant Messenger 2", "instant_messenger2", KindString, 64, func(c *Contact) any { return &c.InstantMessenger2 }},
	{FieldTelephoneIP, "TelephoneIP", "phone_ip", "IP phone", "telephone_ip", KindString, 64, func(c *Contact) any { return &c.TelephoneIP }},
	{FieldTelephoneAssistant, "TelephoneAssistant", "phone_assistant", "Phone (assistant)", "telephone_assistant", KindString, 64, func(c *Contact) any { return &c.TelephoneAssistant }},
	{FieldCompany, "Company", "company", "Company", "company", KindString, 512, func(c *Contact) any { return &c.Company }},
	{FieldImage1, "Image1", "image", "Image", "image1", KindBytes, 0, func(c *Contact) any { return &c.Image1 }},
	{FieldUserField01, "UserField01", "userfield01", "Optional 1", "userfield01", KindString, 64, func(c *Contact) any { return &c.UserFields[0] }},
	{FieldUserField02, "UserField02", "userfield02", "Optional 2", "userfield02", KindString, 64, func(c *Contact) any { return &c.UserFields[1] }},
	{FieldUserField03, "UserField03", "userfield03", "Optional 3", "userfield03", KindString, 64, func(c *Contact) any { return &c.UserFields[2] }},
	{FieldUserField04, "UserField04", "userfield04", "Optional 4", "userfield04", KindString, 64, func(c *Contact) any { return &c.UserFields[3] }},
	{FieldUserField05, "UserField05", "userfield05", "Optional 5", "userfield05", KindString, 64, func(c *Contact) any { return &c.UserFields[4] }},
	{FieldUserField06, "UserField06", "userfield06", "Optional 6", "userfield06", KindString, 64, func(c *Contact) any { return &c.UserFields[5] }},
	{FieldUserField07, "UserField07", "userfield07", "Optional 7", "userfield07", KindString, 64, func(c *Contact) any { return &c.UserFields[6] }},
	{FieldUserField08, "UserField08", "userfield08", "Optional 8", "userfield08", KindString, 64, func(c *Contact) any { return &c.UserFields[7] }},
	{FieldUserField09, "UserField09", "userfield09", "Optional 9", "userfield09", KindString, 64, func(c *Contact) any { return &c.UserFields[8] }},
	{FieldUserField10, "UserField10", "userfield10", "Optional 10", "userfield10", KindString, 64, func(c *Contact) any { return &c.UserFields[9] }},
	{FieldUserField11, "UserField11", "userfield11", "Optional 11", "userfield11", KindString, 64, func(c *Contact) any { return &c.UserFields[10] }},
	{FieldUserField12, "UserField12", "userfield12", "Optional 12", "userfield12", KindString, 64, func(c *Contact) any { return &c.UserFields[11] }},
	{FieldUserField13, "UserField13", "userfield13", "Optional 13", "userfield13", KindString, 64, func(c *Contact) any { return &c.UserFields[12] }},
	{FieldUserField14, "UserField14", "userfield14", "Optional 14", "userfield14", KindString, 64, func(c *Contact) any { return &c.UserFields[13] }},
	{FieldUserField15, "UserField15", "userfield15", "Optional 15", "userfield15", KindString, 64, func(c *Contact) any { return &c.UserFields[14] }},
	{FieldUserField16, "UserField16", "userfield16", "Optional 16", "userfield16", KindString, 64, func(c *Contact) any { return &c.UserFields[15] }},
	{FieldUserField17, "UserField17", "userfield17", "Optional 17", "userfield17", KindString, 64, func(c *Contact) any { return &c.UserFields[16] }},
	{FieldUserField18, "UserField18", "userfield18", "Optional 18", "userfield18", KindString, 64, func(c *Contact) any { return &c.UserFields[17] }},
	{FieldUserField19, "UserField19", "userfield19", "Optional 19", "userfield19", KindString, 64, func(c *Contact) any { return &c.UserFields[18] }},
	{FieldUserField20, "UserField20", "userfield20", "Optional 20", "userfield20", KindString, 64, func(c *Contact) any { return &c.UserFields[19] }},
	{FieldLinks, "Links", "links", "Links", "links", KindLinks, 0, func(c *Contact) any { return &c.Links }},
	{FieldDistributionList, "DistributionList", "distribution_list", "Distribution list", "distribution_list", KindDistributionList, 0, func(c *Contact) any { return &c.DistributionList }},
	{FieldImageLastModified, "ImageLastModified", "image_last_modified", "Image last modified", "image_last_modified", KindTime, 0, func(c *Contact) any { return &c.ImageLastModified }},
	{FieldStateOther, "StateOther", "other_state", "State (other)", "state_other", KindString, 128, func(c *Contact) any { return &c.StateOther }},
	{FieldFileAs, "FileAs", "file_as", "File as", "file_as", KindString, 320, func(c *Contact) any { return &c.FileAs }},
	{FieldImageContentType, "ImageContentType", "image_content_type", "Image content type", "image1_content_type", KindString, 64, func(c *Contact) any { return &c.ImageContentType }},
	{FieldMarkAsDistributionList, "MarkAsDistributionList", "is_distribution_list", "Mark as distribution list", "mark_as_distributionlist", KindBool, 0, func(c *Contact) any { return &c.MarkAsDistributionList }},
	{FieldDefaultAddress, "DefaultAddress", "default_address", "Default address", "default_address", KindInt, 0, func(c *Contact) any { return &c.DefaultAddress }},
	{FieldImageURL, "ImageURL", "image_url", "Image URL", "image1_url", KindString, 512, func(c *Contact) any { return &c.ImageURL }},
	{FieldUseCount, "UseCount", "use_count", "Use count", "use_count", KindInt, 0, func(c *Contact) any { return &c.UseCount }},
	{FieldYomiFirstName, "YomiFirstName", "yomi_given_name", "Yomi first name", "yomiFirstName", KindString, 128, func(c *Contact) any { return &c.YomiFirstName }},
	{FieldYomiLastName, "YomiLastName", "yomi_sur_name", "Yomi last name", "yomiLastName", KindString, 128, func(c *Contact) any { return &c.YomiLastName }},
	{FieldYomiCompany, "YomiCompany", "yomi_company", "Yomi company", "yomiCompany", KindString, 512, func(c *Contact) any { return &c.YomiCompany }},
}
